package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metodos de pago.
const (
	PagoEfectivo      = "efectivo"
	PagoDebito        = "debito"
	PagoCredito       = "credito"
	PagoTransferencia = "transferencia"
)

// Venta is a completed checkout attributed to a cash session. Cash sales
// (metodo_pago = efectivo) feed directly into the expected amount of the
// arqueo; the arqueo subsystem treats ventas as read-only.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroTicket int64           `gorm:"uniqueIndex;not null;default:nextval('numero_ticket_seq')"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	ClienteID    *uuid.UUID      `gorm:"type:uuid;index"`
	MetodoPago   string          `gorm:"type:varchar(20);not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID"`
}

type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
