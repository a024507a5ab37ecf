package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a pharmacy catalog entry. PrincipioActivo drives the
// drug-interaction lookup; stock is tracked per lote (see LoteProducto)
// and consumed FEFO at sale time.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	Laboratorio  string `gorm:"not null"`
	// PrincipioActivo is the normalized (lowercase) active ingredient keyword.
	PrincipioActivo string          `gorm:"index;not null"`
	RequiereReceta  bool            `gorm:"not null;default:false"`
	PrecioCosto     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioVenta     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockActual     int             `gorm:"not null;default:0"`
	StockMinimo     int             `gorm:"not null;default:5"`
	Activo          bool            `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lotes []LoteProducto `gorm:"foreignKey:ProductoID"`
}

// LoteProducto tracks a received batch with its expiry date. Sales pick
// First-Expired-First-Out: lotes with the nearest vencimiento drain first.
type LoteProducto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Codigo      string    `gorm:"not null"`
	Vencimiento time.Time `gorm:"not null;index"`
	Stock       int       `gorm:"not null"`
	CreatedAt   time.Time
}
