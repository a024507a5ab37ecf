package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action codes written by the arqueo flow.
const (
	AuditArqueoRealizado = "ARQUEO_REALIZADO"
	AuditArqueoAprobado  = "ARQUEO_APROBADO"
)

// AuditLog is an append-only record of privileged mutations. An operation
// that cannot write its audit entry must roll back entirely — the audit
// trail is never allowed to lag behind the data it describes.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Accion     string    `gorm:"type:varchar(40);not null;index"`
	EntityType string    `gorm:"type:varchar(40);not null;index"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index"`
	// OldValues / NewValues hold JSON snapshots of the mutated fields.
	OldValues     string `gorm:"type:jsonb"`
	NewValues     string `gorm:"type:jsonb"`
	Justificacion string
	IPAddress     *string `gorm:"type:varchar(45)"`
	CreatedAt     time.Time
}
