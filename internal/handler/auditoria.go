package handler

import (
	"net/http"

	"farmapos/internal/apierror"
	"farmapos/internal/dto"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditoriaHandler struct{ svc service.AuditoriaService }

func NewAuditoriaHandler(svc service.AuditoriaService) *AuditoriaHandler {
	return &AuditoriaHandler{svc: svc}
}

// Listar godoc
// @Summary Consulta el log de auditoria (solo administradores)
// @Tags auditoria
// @Produce json
// @Security BearerAuth
// @Param entity_type query string false "Tipo de entidad"
// @Param entity_id query string false "ID de entidad"
// @Param usuario_id query string false "ID de usuario"
// @Param page query int false "Pagina"
// @Param page_size query int false "Tamano de pagina"
// @Success 200 {object} dto.AuditoriaResponse
// @Router /v1/auditoria [get]
func (h *AuditoriaHandler) Listar(c *gin.Context) {
	var req dto.AuditoriaRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
