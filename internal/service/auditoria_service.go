package service

import (
	"context"
	"errors"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuditoriaService interface {
	Listar(ctx context.Context, req dto.AuditoriaRequest) (*dto.AuditoriaResponse, error)
}

type auditoriaService struct {
	repo repository.AuditRepository
}

func NewAuditoriaService(repo repository.AuditRepository) AuditoriaService {
	return &auditoriaService{repo: repo}
}

func (s *auditoriaService) Listar(ctx context.Context, req dto.AuditoriaRequest) (*dto.AuditoriaResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filtro := repository.FiltroAuditoria{
		EntityType: req.EntityType,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}
	if req.EntityID != nil {
		id, err := uuid.Parse(*req.EntityID)
		if err != nil {
			return nil, errors.New("entity_id inválido")
		}
		filtro.EntityID = &id
	}
	if req.UsuarioID != nil {
		id, err := uuid.Parse(*req.UsuarioID)
		if err != nil {
			return nil, errors.New("usuario_id inválido")
		}
		filtro.UsuarioID = &id
	}

	rows, total, err := s.repo.List(ctx, filtro)
	if err != nil {
		log.Error().Err(err).Msg("listar auditoría")
		return nil, ErrArqueoFallido
	}

	records := make([]dto.AuditoriaRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, dto.AuditoriaRecord{
			ID:            r.ID.String(),
			UsuarioID:     r.UsuarioID.String(),
			Usuario:       r.UsuarioNombre,
			Accion:        r.Accion,
			EntityType:    r.EntityType,
			EntityID:      r.EntityID.String(),
			OldValues:     r.OldValues,
			NewValues:     r.NewValues,
			Justificacion: r.Justificacion,
			IPAddress:     r.IPAddress,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.AuditoriaResponse{
		Records:  records,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
