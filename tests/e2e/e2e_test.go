//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - full shift cycle: login → abrir caja → venta → gasto → discrepancia → arqueo
//   - approval gate for discrepancies at or over the threshold
//   - concurrent arqueo attempts: exactly one wins
//   - audit entry written atomically with the arqueo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"farmapos/internal/config"
	"farmapos/internal/infra"
	"farmapos/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

const (
	adminPassword = "farmapos2026"
	adminPin      = "2468"
)

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("farmapos_test"),
		tcPostgres.WithUsername("farmapos"),
		tcPostgres.WithPassword("farmapos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		MigrationsPath:     "file://../../migrations",
		RedisURL:           rdURL,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.MigrationsPath)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user with password and authorization PIN
	passHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	pinHash, err := bcrypt.GenerateFromPassword([]byte(adminPin), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		INSERT INTO usuarios (username, nombre, email, password_hash, pin_hash, rol, activo)
		VALUES ('admin@e2e.test', 'Admin E2E', 'admin@e2e.test', ?, ?, 'administrador', true)
		ON CONFLICT DO NOTHING`, string(passHash), string(pinHash)).Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": adminPassword}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func (env *testEnv) abrirCaja(t *testing.T, pdv int, montoInicial float64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/caja/abrir",
		jsonBody(t, map[string]any{"punto_de_venta": pdv, "monto_inicial": montoInicial}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var caja struct {
		SesionCajaID string `json:"sesion_caja_id"`
	}
	decodeJSON(t, resp, &caja)
	require.NotEmpty(t, caja.SesionCajaID)
	return caja.SesionCajaID
}

func (env *testEnv) crearProductoConLote(t *testing.T, nombre, barcode string, precio float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/productos",
		jsonBody(t, map[string]any{
			"nombre":           nombre,
			"codigo_barras":    barcode,
			"laboratorio":      "Laboratorio E2E",
			"principio_activo": "ibuprofeno",
			"precio_costo":     precio / 2,
			"precio_venta":     precio,
			"stock_minimo":     1,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)

	loteResp := do(t, env.server, "POST", "/v1/productos/lotes",
		jsonBody(t, map[string]any{
			"producto_id": prod.ID,
			"codigo":      "L-E2E-1",
			"vencimiento": time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
			"stock":       stock,
		}), env.token)
	require.Equal(t, http.StatusCreated, loteResp.StatusCode)
	loteResp.Body.Close()
	return prod.ID
}

func (env *testEnv) venderEfectivo(t *testing.T, sesionID, productoID string, cantidad int) {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"metodo_pago":    "efectivo",
			"items":          []map[string]any{{"producto_id": productoID, "cantidad": cantidad}},
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

type discrepancia struct {
	MontoEsperado      json.Number `json:"monto_esperado"`
	MontoReal          json.Number `json:"monto_real"`
	Diferencia         json.Number `json:"diferencia"`
	RequiereAprobacion bool        `json:"requiere_aprobacion"`
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloCompletoDeArqueo(t *testing.T) {
	env := setupTestEnv(t)

	sesionID := env.abrirCaja(t, 1, 100000)
	prodID := env.crearProductoConLote(t, "Ibuprofeno 400mg", "7790001000001", 2500, 100)

	// Venta en efectivo por 10 unidades: 25000
	env.venderEfectivo(t, sesionID, prodID, 10)

	// Gasto en efectivo de 5000
	gastoResp := do(t, env.server, "POST", "/v1/caja/movimiento",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"tipo":           "gasto",
			"monto":          5000,
			"es_efectivo":    true,
			"descripcion":    "compra de insumos de limpieza",
		}), env.token)
	require.Equal(t, http.StatusNoContent, gastoResp.StatusCode)
	gastoResp.Body.Close()

	// Discrepancia proyectada: esperado = 100000 + 25000 − 5000 = 120000
	discResp := do(t, env.server, "GET", "/v1/arqueo/"+sesionID+"/discrepancia", nil, env.token)
	require.Equal(t, http.StatusOK, discResp.StatusCode)
	var disc discrepancia
	decodeJSON(t, discResp, &disc)
	assert.Equal(t, "120000", disc.MontoEsperado.String())

	// Arqueo con el conteo exacto: diferencia cero, sin aprobación
	arqueoResp := do(t, env.server, "POST", "/v1/arqueo",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"monto_cierre":   120000,
			"observaciones":  "cierre de turno sin novedades",
			"pin":            adminPin,
		}), env.token)
	require.Equal(t, http.StatusOK, arqueoResp.StatusCode)
	var resultado discrepancia
	decodeJSON(t, arqueoResp, &resultado)
	assert.Equal(t, "0", resultado.Diferencia.String())
	assert.False(t, resultado.RequiereAprobacion)

	// La auditoría quedó escrita en la misma transacción
	audResp := do(t, env.server, "GET", "/v1/auditoria?entity_id="+sesionID, nil, env.token)
	require.Equal(t, http.StatusOK, audResp.StatusCode)
	var auditoria struct {
		Total   int64 `json:"total"`
		Records []struct {
			Accion string `json:"accion"`
		} `json:"records"`
	}
	decodeJSON(t, audResp, &auditoria)
	require.Equal(t, int64(1), auditoria.Total)
	assert.Equal(t, "ARQUEO_REALIZADO", auditoria.Records[0].Accion)

	// Un segundo arqueo sobre la misma sesión es un conflicto
	repetido := do(t, env.server, "POST", "/v1/arqueo",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"monto_cierre":   120000,
			"observaciones":  "intento duplicado de cierre",
			"pin":            adminPin,
		}), env.token)
	assert.Equal(t, http.StatusConflict, repetido.StatusCode)
	repetido.Body.Close()
}

func TestE2E_DiscrepanciaGrandeRequiereAprobacion(t *testing.T) {
	env := setupTestEnv(t)

	sesionID := env.abrirCaja(t, 2, 100000)

	// Cuenta 160000 contra 100000 esperado: +60000, sobre el umbral de 50000
	arqueoResp := do(t, env.server, "POST", "/v1/arqueo",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"monto_cierre":   160000,
			"observaciones":  "sobrante grande detectado en conteo",
			"pin":            adminPin,
		}), env.token)
	require.Equal(t, http.StatusOK, arqueoResp.StatusCode)
	var resultado discrepancia
	decodeJSON(t, arqueoResp, &resultado)
	assert.True(t, resultado.RequiereAprobacion)

	// PIN equivocado no aprueba
	malPin := do(t, env.server, "POST", "/v1/arqueo/aprobar",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"pin":            "0000",
			"observaciones":  "pin incorrecto a propósito",
		}), env.token)
	assert.Equal(t, http.StatusForbidden, malPin.StatusCode)
	malPin.Body.Close()

	aprobResp := do(t, env.server, "POST", "/v1/arqueo/aprobar",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"pin":            adminPin,
			"observaciones":  "sobrante verificado contra tickets",
		}), env.token)
	require.Equal(t, http.StatusOK, aprobResp.StatusCode)
	var aprobacion struct {
		Estado string `json:"estado"`
	}
	decodeJSON(t, aprobResp, &aprobacion)
	assert.Equal(t, "aprobada", aprobacion.Estado)

	// El historial refleja la sesión aprobada
	histResp := do(t, env.server, "GET", "/v1/arqueo/historial?punto_de_venta=2", nil, env.token)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	var hist struct {
		Total   int64 `json:"total"`
		Records []struct {
			Estado string `json:"estado"`
		} `json:"records"`
	}
	decodeJSON(t, histResp, &hist)
	require.Equal(t, int64(1), hist.Total)
	assert.Equal(t, "aprobada", hist.Records[0].Estado)
}

func TestE2E_ArqueosConcurrentesSoloUnoGana(t *testing.T) {
	env := setupTestEnv(t)

	sesionID := env.abrirCaja(t, 3, 50000)

	const intentos = 4
	codes := make([]int, intentos)
	var wg sync.WaitGroup
	for i := 0; i < intentos; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/arqueo",
				jsonBody(t, map[string]any{
					"sesion_caja_id": sesionID,
					"monto_cierre":   50000,
					"observaciones":  "cierre concurrente de prueba",
					"pin":            adminPin,
				}), env.token)
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			exitos++
		case http.StatusConflict:
			// lock no disponible o sesión ya arqueada
		default:
			t.Fatalf("status inesperado: %d", code)
		}
	}
	assert.Equal(t, 1, exitos, "exactamente un arqueo debe confirmarse")
}
