package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farmapos/internal/config"
	"farmapos/internal/dto"
	"farmapos/internal/handler"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func seedUser(t *testing.T, repo *memUsuarioRepo, username, password, rol string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := model.Usuario{
		ID: uuid.New(), Username: username, Nombre: "Test User",
		PasswordHash: string(hash), Rol: rol, Activo: true,
	}
	repo.usuarios = append(repo.usuarios, u)
	return &repo.usuarios[len(repo.usuarios)-1]
}

func signToken(t *testing.T, userID, rol string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "rol": rol,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func doLoginRequest(t *testing.T, svc service.AuthService, req dto.LoginRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authH := handler.NewAuthHandler(svc)
	r.POST("/login", authH.Login)

	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	httpReq, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, httpReq)
	return w
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "rol": claims.Rol})
	})
	r.GET("/admin", middleware.RequireRole(model.RolAdministrador), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

// ── Tests: Login ──────────────────────────────────────────────────────────────

func TestLoginSuccess(t *testing.T) {
	repo := &memUsuarioRepo{}
	seedUser(t, repo, "admin", "password123", model.RolAdministrador)
	svc := service.NewAuthService(repo, newTestCfg())

	w := doLoginRequest(t, svc, dto.LoginRequest{Username: "admin", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, model.RolAdministrador, resp.User.Rol)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &memUsuarioRepo{}
	seedUser(t, repo, "cajero1", "correctpass", model.RolCajero)
	svc := service.NewAuthService(repo, newTestCfg())

	w := doLoginRequest(t, svc, dto.LoginRequest{Username: "cajero1", Password: "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUsuarioInactivo(t *testing.T) {
	repo := &memUsuarioRepo{}
	u := seedUser(t, repo, "baja1", "password123", model.RolCajero)
	u.Activo = false
	svc := service.NewAuthService(repo, newTestCfg())

	w := doLoginRequest(t, svc, dto.LoginRequest{Username: "baja1", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ── Tests: middleware ─────────────────────────────────────────────────────────

func TestJWTProtectedRoute(t *testing.T) {
	r := ginTestRouter()
	token := signToken(t, uuid.NewString(), model.RolSupervisor, time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMissingToken(t *testing.T) {
	r := ginTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTExpiredToken(t *testing.T) {
	r := ginTestRouter()
	token := signToken(t, uuid.NewString(), model.RolSupervisor, -time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleRejectsLowerTier(t *testing.T) {
	r := ginTestRouter()
	token := signToken(t, uuid.NewString(), model.RolCajero, time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ── Tests: CrearUsuario ───────────────────────────────────────────────────────

func TestCrearUsuarioHasheaPin(t *testing.T) {
	repo := &memUsuarioRepo{}
	svc := service.NewAuthService(repo, newTestCfg())

	pin := "5678"
	_, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "super2",
		Nombre:   "Nuevo Supervisor",
		Password: "password123",
		Rol:      model.RolSupervisor,
		Pin:      &pin,
	})
	require.NoError(t, err)

	require.Len(t, repo.usuarios, 1)
	guardado := repo.usuarios[0]
	require.NotNil(t, guardado.PinHash)
	assert.Nil(t, guardado.Pin, "el PIN nunca se guarda en claro")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*guardado.PinHash), []byte(pin)))
	assert.NotEqual(t, "password123", guardado.PasswordHash)
}
