package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estado of a SesionCaja. Transitions are monotonic:
// abierta → arqueada → aprobada. A session never moves backward and is
// never hard-deleted.
const (
	SesionAbierta  = "abierta"
	SesionArqueada = "arqueada"
	SesionAprobada = "aprobada"
)

// Movimiento tipos. Montos are stored positive; the tipo carries the sign
// when computing the expected cash amount.
const (
	MovimientoGasto    = "gasto"
	MovimientoRetiro   = "retiro"
	MovimientoDeposito = "deposito"
	MovimientoIngreso  = "ingreso"
)

// SesionCaja represents the lifecycle of a cash drawer shift: opened by a
// cashier, closed and reconciled (arqueo) by a supervisor, and — when the
// discrepancy is large — approved by an administrator.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PuntoDeVenta int             `gorm:"not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MontoCierre is the physically counted cash declared at arqueo time.
	// Diferencia = MontoCierre − esperado; only meaningful once set.
	MontoCierre *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado      string           `gorm:"type:varchar(20);not null;default:'abierta';index"`

	ArqueadaPor *uuid.UUID `gorm:"type:uuid"`
	ArqueadaAt  *time.Time
	AprobadaPor *uuid.UUID `gorm:"type:uuid"`
	AprobadaAt  *time.Time

	Observaciones *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

// MovimientoCaja is an immutable event in the cash register ledger.
// EsEfectivo distinguishes physical-cash movements from card/transfer
// bookkeeping; only cash movements participate in the arqueo formula.
// Movements are NEVER modified or deleted.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsEfectivo   bool            `gorm:"not null;default:true"`
	Descripcion  string          `gorm:"not null"`
	CreatedAt    time.Time
}
