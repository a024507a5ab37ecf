package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	CodigoBarras    string          `json:"codigo_barras"    validate:"required"`
	Nombre          string          `json:"nombre"           validate:"required,min=2"`
	Descripcion     *string         `json:"descripcion"`
	Laboratorio     string          `json:"laboratorio"      validate:"required"`
	PrincipioActivo string          `json:"principio_activo" validate:"required"`
	RequiereReceta  bool            `json:"requiere_receta"`
	PrecioCosto     decimal.Decimal `json:"precio_costo"     validate:"min=0"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"     validate:"required,gt=0"`
	StockMinimo     int             `json:"stock_minimo"     validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre          string           `json:"nombre"`
	Descripcion     *string          `json:"descripcion"`
	Laboratorio     string           `json:"laboratorio"`
	PrincipioActivo string           `json:"principio_activo"`
	RequiereReceta  *bool            `json:"requiere_receta"`
	PrecioCosto     *decimal.Decimal `json:"precio_costo"`
	PrecioVenta     *decimal.Decimal `json:"precio_venta"`
	StockMinimo     *int             `json:"stock_minimo"`
}

type IngresarLoteRequest struct {
	ProductoID  string `json:"producto_id" validate:"required,uuid"`
	Codigo      string `json:"codigo"      validate:"required"`
	Vencimiento string `json:"vencimiento" validate:"required"` // RFC 3339
	Stock       int    `json:"stock"       validate:"required,gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoteResponse struct {
	ID          string `json:"id"`
	Codigo      string `json:"codigo"`
	Vencimiento string `json:"vencimiento"`
	Stock       int    `json:"stock"`
}

type ProductoResponse struct {
	ID              string          `json:"id"`
	CodigoBarras    string          `json:"codigo_barras"`
	Nombre          string          `json:"nombre"`
	Descripcion     *string         `json:"descripcion"`
	Laboratorio     string          `json:"laboratorio"`
	PrincipioActivo string          `json:"principio_activo"`
	RequiereReceta  bool            `json:"requiere_receta"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	StockActual     int             `json:"stock_actual"`
	StockMinimo     int             `json:"stock_minimo"`
	Activo          bool            `json:"activo"`
	Lotes           []LoteResponse  `json:"lotes,omitempty"`
}

// ConsultaPreciosResponse is the public (unauthenticated) price check shape.
type ConsultaPreciosResponse struct {
	Nombre          string          `json:"nombre"`
	Laboratorio     string          `json:"laboratorio"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	StockDisponible int             `json:"stock_disponible"`
	RequiereReceta  bool            `json:"requiere_receta"`
}
