package handler

import (
	"errors"
	"net/http"

	"farmapos/internal/apierror"
	"farmapos/internal/dto"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ArqueoHandler struct{ svc service.ArqueoService }

func NewArqueoHandler(svc service.ArqueoService) *ArqueoHandler { return &ArqueoHandler{svc: svc} }

// CalcularDiscrepancia godoc
// @Summary Calcula la discrepancia proyectada de una sesion sin cerrarla
// @Tags arqueo
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.DiscrepanciaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/arqueo/{id}/discrepancia [get]
func (h *ArqueoHandler) CalcularDiscrepancia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.CalcularDiscrepancia(c.Request.Context(), id)
	if err != nil {
		h.responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RealizarArqueo godoc
// @Summary Realiza el arqueo (cierre contado) de una sesion de caja
// @Description Requiere el PIN de un supervisor o administrador. La operacion es
// @Description atomica: sesion, diferencia y auditoria se confirman juntas o no se confirma nada.
// @Tags arqueo
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ArqueoRequest true "Datos del arqueo"
// @Success 200 {object} dto.DiscrepanciaResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/arqueo [post]
func (h *ArqueoHandler) RealizarArqueo(c *gin.Context) {
	var req dto.ArqueoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RealizarArqueo(c.Request.Context(), req, clientIP(c))
	if err != nil {
		h.responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AprobarArqueo godoc
// @Summary Aprueba un arqueo con discrepancia sobre el umbral
// @Tags arqueo
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AprobacionRequest true "Datos de aprobacion"
// @Success 200 {object} dto.AprobacionResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/arqueo/aprobar [post]
func (h *ArqueoHandler) AprobarArqueo(c *gin.Context) {
	var req dto.AprobacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AprobarArqueo(c.Request.Context(), req, clientIP(c))
	if err != nil {
		h.responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Lista arqueos historicos con filtros y paginacion
// @Tags arqueo
// @Produce json
// @Security BearerAuth
// @Param punto_de_venta query int false "Punto de venta"
// @Param desde query string false "Fecha desde (RFC3339)"
// @Param hasta query string false "Fecha hasta (RFC3339)"
// @Param min_discrepancia query number false "Discrepancia absoluta minima"
// @Param page query int false "Pagina"
// @Param page_size query int false "Tamano de pagina"
// @Success 200 {object} dto.HistorialArqueosResponse
// @Router /v1/arqueo/historial [get]
func (h *ArqueoHandler) Historial(c *gin.Context) {
	var req dto.HistorialArqueosRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.Historial(c.Request.Context(), req)
	if err != nil {
		h.responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// responderError maps service sentinels to HTTP statuses. Anything
// unrecognized becomes a 500 without leaking the underlying error.
func (h *ArqueoHandler) responderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSesionNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New("Sesión no encontrada"))
	case errors.Is(err, service.ErrPinInvalido):
		c.JSON(http.StatusForbidden, apierror.New("PIN no autorizado"))
	case errors.Is(err, service.ErrSesionEnProceso):
		c.JSON(http.StatusConflict, apierror.New("La sesión está siendo arqueada por otro proceso"))
	case errors.Is(err, service.ErrSesionNoAbierta):
		c.JSON(http.StatusConflict, apierror.New("La sesión no está abierta"))
	case errors.Is(err, service.ErrSesionNoArqueada):
		c.JSON(http.StatusConflict, apierror.New("La sesión no tiene un arqueo pendiente de aprobación"))
	case errors.Is(err, service.ErrFechaInvalida):
		c.JSON(http.StatusBadRequest, apierror.New("Rango de fechas inválido"))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("No se pudo completar la operación"))
	}
}

func clientIP(c *gin.Context) *string {
	ip := c.ClientIP()
	if ip == "" {
		return nil
	}
	return &ip
}
