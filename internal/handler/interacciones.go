package handler

import (
	"net/http"
	"strings"

	"farmapos/internal/apierror"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
)

type InteraccionesHandler struct{ svc service.InteraccionesService }

func NewInteraccionesHandler(svc service.InteraccionesService) *InteraccionesHandler {
	return &InteraccionesHandler{svc: svc}
}

// Verificar godoc
// @Summary Verifica interacciones entre principios activos
// @Description Acepta los principios como lista separada por comas en el
// @Description parametro "principios". La consulta no toca la base de datos.
// @Tags interacciones
// @Produce json
// @Security BearerAuth
// @Param principios query string true "Principios activos separados por coma"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apierror.APIError
// @Router /v1/interacciones [get]
func (h *InteraccionesHandler) Verificar(c *gin.Context) {
	raw := c.Query("principios")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Se requiere al menos un principio activo"))
		return
	}
	principios := strings.Split(raw, ",")
	alertas := h.svc.Verificar(principios)
	c.JSON(http.StatusOK, gin.H{"alertas": alertas, "total": len(alertas)})
}
