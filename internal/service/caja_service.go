package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error
	ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	GetActiva(ctx context.Context, usuarioID uuid.UUID) (*dto.ReporteCajaResponse, error)
	// FindSesionAbierta is called by VentaService to validate an open session
	FindSesionAbierta(ctx context.Context, sesionID uuid.UUID) error
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error) {
	// Guard: no duplicate open session per punto_de_venta
	if existing, err := s.repo.FindSesionAbiertaPorPDV(ctx, req.PuntoDeVenta); err == nil && existing != nil {
		return nil, errors.New("ya existe una caja abierta en este punto de venta")
	}

	sesion := &model.SesionCaja{
		PuntoDeVenta: req.PuntoDeVenta,
		UsuarioID:    usuarioID,
		MontoInicial: req.MontoInicial,
		Estado:       model.SesionAbierta,
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, err
	}

	return s.buildReporte(ctx, sesion)
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Gasto / retiro / deposito / ingreso. Movements are immutable — no
// Update/Delete is ever exposed.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if err := s.FindSesionAbierta(ctx, sesionID); err != nil {
		return err
	}

	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		Monto:        req.Monto,
		EsEfectivo:   *req.EsEfectivo,
		Descripcion:  req.Descripcion,
	}
	return s.repo.CreateMovimiento(ctx, mov)
}

// ── ObtenerReporte ────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, ErrSesionNoEncontrada
	}
	return s.buildReporte(ctx, sesion)
}

// ── GetActiva ─────────────────────────────────────────────────────────────────

func (s *cajaService) GetActiva(ctx context.Context, usuarioID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorUsuario(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.buildReporte(ctx, sesion)
}

// ── FindSesionAbierta ─────────────────────────────────────────────────────────

func (s *cajaService) FindSesionAbierta(ctx context.Context, sesionID uuid.UUID) error {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return ErrSesionNoEncontrada
	}
	if sesion.Estado != model.SesionAbierta {
		return ErrSesionNoAbierta
	}
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// buildReporte computes the running expected cash with the same formula the
// arqueo uses, so the on-screen report always matches a later reconciliation.
func (s *cajaService) buildReporte(ctx context.Context, sesion *model.SesionCaja) (*dto.ReporteCajaResponse, error) {
	ventas, err := s.repo.SumVentasEfectivo(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.SumMovimientosEfectivo(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	esperado := montoEsperado(sesion.MontoInicial, ventas, movs)

	movimientos, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	movResp := make([]dto.MovimientoResponse, len(movimientos))
	for i, m := range movimientos {
		movResp[i] = dto.MovimientoResponse{
			ID:          m.ID.String(),
			Tipo:        m.Tipo,
			Monto:       m.Monto,
			EsEfectivo:  m.EsEfectivo,
			Descripcion: m.Descripcion,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
	}

	reporte := &dto.ReporteCajaResponse{
		SesionCajaID:  sesion.ID.String(),
		PuntoDeVenta:  sesion.PuntoDeVenta,
		MontoInicial:  sesion.MontoInicial,
		MontoEsperado: esperado,
		MontoCierre:   sesion.MontoCierre,
		Diferencia:    sesion.Diferencia,
		Estado:        sesion.Estado,
		Observaciones: sesion.Observaciones,
		Movimientos:   movResp,
		OpenedAt:      sesion.OpenedAt.Format(time.RFC3339),
		ClosedAt:      formatearFecha(sesion.ClosedAt),
	}
	return reporte, nil
}
