package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ArqueoRequest closes and reconciles a session. The PIN authorizes the
// operation: 4 to 8 numeric digits, checked against every active user of an
// eligible role.
type ArqueoRequest struct {
	SesionCajaID  string          `json:"sesion_caja_id" validate:"required,uuid"`
	MontoCierre   decimal.Decimal `json:"monto_cierre"   validate:"min=0"`
	Observaciones string          `json:"observaciones"  validate:"required,min=10"`
	Pin           string          `json:"pin"            validate:"required,numeric,min=4,max=8"`
}

// AprobacionRequest approves an already reconciled session. Stricter role
// tier than the arqueo itself.
type AprobacionRequest struct {
	SesionCajaID  string `json:"sesion_caja_id" validate:"required,uuid"`
	Pin           string `json:"pin"            validate:"required,numeric,min=4,max=8"`
	Observaciones string `json:"observaciones"  validate:"required,min=10"`
}

// HistorialArqueosRequest filters reconciled/approved sessions. All filters
// optional; pagination defaults applied by the service.
type HistorialArqueosRequest struct {
	PuntoDeVenta    *int             `form:"punto_de_venta"`
	Desde           *string          `form:"desde"` // RFC 3339
	Hasta           *string          `form:"hasta"`
	MinDiscrepancia *decimal.Decimal `form:"min_discrepancia"`
	Page            int              `form:"page"`
	PageSize        int              `form:"page_size"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// DiscrepanciaResponse is the shared result shape of the calculator and the
// committer. Diferencia is monto real − monto esperado: positive = surplus.
type DiscrepanciaResponse struct {
	SesionCajaID       string          `json:"sesion_caja_id"`
	MontoEsperado      decimal.Decimal `json:"monto_esperado"`
	MontoReal          decimal.Decimal `json:"monto_real"`
	Diferencia         decimal.Decimal `json:"diferencia"`
	RequiereAprobacion bool            `json:"requiere_aprobacion"`
}

type AprobacionResponse struct {
	SesionCajaID string `json:"sesion_caja_id"`
	Estado       string `json:"estado"`
}

// HistorialArqueoRecord is one reconciled session row, joined with the
// display names of the users who reconciled and approved it.
type HistorialArqueoRecord struct {
	SesionCajaID  string           `json:"sesion_caja_id"`
	PuntoDeVenta  int              `json:"punto_de_venta"`
	MontoInicial  decimal.Decimal  `json:"monto_inicial"`
	MontoCierre   *decimal.Decimal `json:"monto_cierre"`
	Diferencia    *decimal.Decimal `json:"diferencia"`
	Estado        string           `json:"estado"`
	ArqueadaPor   *string          `json:"arqueada_por"`
	ArqueadaAt    *string          `json:"arqueada_at"`
	AprobadaPor   *string          `json:"aprobada_por"`
	AprobadaAt    *string          `json:"aprobada_at"`
	Observaciones *string          `json:"observaciones"`
}

type HistorialArqueosResponse struct {
	Records    []HistorialArqueoRecord `json:"records"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}
