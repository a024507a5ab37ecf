package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	PuntoDeVenta int             `json:"punto_de_venta" validate:"required,min=1"`
	MontoInicial decimal.Decimal `json:"monto_inicial"  validate:"min=0"`
}

type MovimientoManualRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=gasto retiro deposito ingreso"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	EsEfectivo   *bool           `json:"es_efectivo"    validate:"required"`
	Descripcion  string          `json:"descripcion"    validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	EsEfectivo  bool            `json:"es_efectivo"`
	Descripcion string          `json:"descripcion"`
	CreatedAt   string          `json:"created_at"`
}

type ReporteCajaResponse struct {
	SesionCajaID  string               `json:"sesion_caja_id"`
	PuntoDeVenta  int                  `json:"punto_de_venta"`
	MontoInicial  decimal.Decimal      `json:"monto_inicial"`
	MontoEsperado decimal.Decimal      `json:"monto_esperado"`
	MontoCierre   *decimal.Decimal     `json:"monto_cierre"`
	Diferencia    *decimal.Decimal     `json:"diferencia"`
	Estado        string               `json:"estado"`
	Observaciones *string              `json:"observaciones"`
	Movimientos   []MovimientoResponse `json:"movimientos"`
	OpenedAt      string               `json:"opened_at"`
	ClosedAt      *string              `json:"closed_at"`
}
