package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a CRM record for recurring customers (obra social billing,
// prescription tracking). Soft-deleted via Activo like usuarios.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Documento string    `gorm:"uniqueIndex;not null"`
	Telefono  *string
	Email     *string
	ObraSocial *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
