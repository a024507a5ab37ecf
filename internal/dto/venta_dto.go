package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type VentaItemRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,gt=0"`
}

type RegistrarVentaRequest struct {
	SesionCajaID string             `json:"sesion_caja_id" validate:"required,uuid"`
	ClienteID    *string            `json:"cliente_id"     validate:"omitempty,uuid"`
	MetodoPago   string             `json:"metodo_pago"    validate:"required,oneof=efectivo debito credito transferencia"`
	Items        []VentaItemRequest `json:"items"          validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaItemResponse struct {
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID           string              `json:"id"`
	NumeroTicket int64               `json:"numero_ticket"`
	SesionCajaID string              `json:"sesion_caja_id"`
	MetodoPago   string              `json:"metodo_pago"`
	Total        decimal.Decimal     `json:"total"`
	Items        []VentaItemResponse `json:"items"`
	CreatedAt    string              `json:"created_at"`
}
