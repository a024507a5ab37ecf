package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Supervisors and above can authorize an arqueo; only administrators
// and the gerente general can approve a large discrepancy.
const (
	RolCajero         = "cajero"
	RolSupervisor     = "supervisor"
	RolAdministrador  = "administrador"
	RolGerenteGeneral = "gerente_general"
)

// Usuario stores system users with role-based access.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	// PinHash holds the bcrypt hash of the authorization PIN. Legacy rows
	// imported from the previous system keep the raw value in Pin instead;
	// both are checked, hash first. PINs are a capability, not an identity —
	// no uniqueness is enforced across users.
	PinHash *string
	Pin     *string `gorm:"type:varchar(8)"`
	// PuntoDeVenta restricts a cashier to a specific register; nil = all registers
	PuntoDeVenta *int
	Activo       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
