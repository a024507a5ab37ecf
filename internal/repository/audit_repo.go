package repository

import (
	"context"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FiltroAuditoria filters the append-only audit log.
type FiltroAuditoria struct {
	EntityType *string
	EntityID   *uuid.UUID
	UsuarioID  *uuid.UUID
	Limit      int
	Offset     int
}

// AuditRow joins an audit entry with the acting user's display name.
type AuditRow struct {
	model.AuditLog
	UsuarioNombre string
}

type AuditRepository interface {
	List(ctx context.Context, f FiltroAuditoria) ([]AuditRow, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) List(ctx context.Context, f FiltroAuditoria) ([]AuditRow, int64, error) {
	aplicarFiltros := func(q *gorm.DB) *gorm.DB {
		if f.EntityType != nil {
			q = q.Where("audit_logs.entity_type = ?", *f.EntityType)
		}
		if f.EntityID != nil {
			q = q.Where("audit_logs.entity_id = ?", *f.EntityID)
		}
		if f.UsuarioID != nil {
			q = q.Where("audit_logs.usuario_id = ?", *f.UsuarioID)
		}
		return q
	}

	var total int64
	if err := aplicarFiltros(r.db.WithContext(ctx).Model(&model.AuditLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AuditRow
	err := aplicarFiltros(r.db.WithContext(ctx).Model(&model.AuditLog{})).
		Select("audit_logs.*, u.nombre AS usuario_nombre").
		Joins("LEFT JOIN usuarios u ON u.id = audit_logs.usuario_id").
		Order("audit_logs.created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
