package handler

import (
	"errors"
	"net/http"

	"farmapos/internal/apierror"
	"farmapos/internal/dto"
	"farmapos/internal/middleware"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VentaHandler struct{ svc service.VentaService }

func NewVentaHandler(svc service.VentaService) *VentaHandler { return &VentaHandler{svc: svc} }

// Registrar godoc
// @Summary Registra una venta contra la sesion de caja abierta
// @Description El stock se descuenta por lote en orden de vencimiento. Si algun
// @Description producto no alcanza, la venta completa se rechaza.
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Items de la venta"
// @Success 201 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentaHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarVenta(c.Request.Context(), usuarioID, req)
	if err != nil {
		if errors.Is(err, service.ErrStockInsuficiente) {
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarPorSesion godoc
// @Summary Lista las ventas de una sesion de caja
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param sesion_id path string true "ID de sesion"
// @Success 200 {object} map[string]interface{}
// @Router /v1/ventas/sesion/{sesion_id} [get]
func (h *VentaHandler) ListarPorSesion(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("sesion_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de sesión inválido"))
		return
	}
	page, limit := paginacion(c, 50)

	ventas, total, err := h.svc.ListarPorSesion(c.Request.Context(), sesionID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventas": ventas, "total": total, "page": page, "limit": limit})
}
