package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UmbralDiscrepancia: an absolute difference at or above this amount needs a
// second approval from the admin tier before the session is considered closed.
var UmbralDiscrepancia = decimal.NewFromInt(50000)

// Role tiers. A PIN is a capability, not an identity: the first active user
// of an eligible role whose PIN matches authorizes the operation.
var (
	rolesArqueo     = []string{model.RolSupervisor, model.RolAdministrador, model.RolGerenteGeneral}
	rolesAprobacion = []string{model.RolAdministrador, model.RolGerenteGeneral}
)

var (
	ErrSesionNoEncontrada = errors.New("sesión de caja no encontrada")
	ErrSesionEnProceso    = errors.New("la sesión está siendo procesada por otro usuario")
	ErrPinInvalido        = errors.New("PIN inválido")
	ErrSesionNoAbierta    = errors.New("la sesión no está abierta")
	ErrSesionNoArqueada   = errors.New("la sesión no fue arqueada")
	ErrFechaInvalida      = errors.New("fecha inválida, se espera formato RFC3339")
	// ErrArqueoFallido is the generic failure returned for unexpected DB or
	// audit-write errors; details stay in the server log.
	ErrArqueoFallido = errors.New("no se pudo procesar la operación")
)

type ArqueoService interface {
	CalcularDiscrepancia(ctx context.Context, sesionID uuid.UUID) (*dto.DiscrepanciaResponse, error)
	RealizarArqueo(ctx context.Context, req dto.ArqueoRequest, ip *string) (*dto.DiscrepanciaResponse, error)
	AprobarArqueo(ctx context.Context, req dto.AprobacionRequest, ip *string) (*dto.AprobacionResponse, error)
	Historial(ctx context.Context, req dto.HistorialArqueosRequest) (*dto.HistorialArqueosResponse, error)
}

type arqueoService struct {
	repo     repository.ArqueoRepository
	usuarios repository.UsuarioRepository
	rdb      *redis.Client
}

func NewArqueoService(repo repository.ArqueoRepository, usuarios repository.UsuarioRepository, rdb *redis.Client) ArqueoService {
	return &arqueoService{repo: repo, usuarios: usuarios, rdb: rdb}
}

// ── CalcularDiscrepancia ─────────────────────────────────────────────────────
// Pure read used by the interactive calculator. Runs in a SERIALIZABLE
// read-only transaction so the ventas and movimientos sums come from one
// consistent snapshot.

func (s *arqueoService) CalcularDiscrepancia(ctx context.Context, sesionID uuid.UUID) (*dto.DiscrepanciaResponse, error) {
	tx, err := s.repo.Begin(ctx, true)
	if err != nil {
		log.Error().Err(err).Msg("calcular discrepancia: begin")
		return nil, ErrArqueoFallido
	}
	defer func() { _ = tx.Rollback() }()

	sesion, err := tx.FindSesion(sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSesionNoEncontrada
		}
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("calcular discrepancia")
		return nil, ErrArqueoFallido
	}

	esperado, err := montoEsperadoTx(tx, sesion)
	if err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("calcular discrepancia: sumas")
		return nil, ErrArqueoFallido
	}

	real := decimal.Zero
	if sesion.MontoCierre != nil {
		real = *sesion.MontoCierre
	}
	diferencia := real.Sub(esperado)

	return &dto.DiscrepanciaResponse{
		SesionCajaID:       sesion.ID.String(),
		MontoEsperado:      esperado,
		MontoReal:          real,
		Diferencia:         diferencia,
		RequiereAprobacion: diferencia.Abs().GreaterThanOrEqual(UmbralDiscrepancia),
	}, nil
}

// ── RealizarArqueo ───────────────────────────────────────────────────────────
// Closes and reconciles a session: PIN capability check, fail-fast row lock,
// recompute inside the lock scope, persist, mandatory audit entry. The
// reconciliation does not exist unless it is audited — any audit failure
// rolls the whole transaction back.

func (s *arqueoService) RealizarArqueo(ctx context.Context, req dto.ArqueoRequest, ip *string) (*dto.DiscrepanciaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if req.MontoCierre.IsNegative() {
		return nil, errors.New("el monto de cierre no puede ser negativo")
	}

	tx, err := s.repo.Begin(ctx, false)
	if err != nil {
		log.Error().Err(err).Msg("arqueo: begin")
		return nil, ErrArqueoFallido
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	autorizador, err := s.validarPin(ctx, req.Pin, rolesArqueo)
	if err != nil {
		return nil, err
	}

	sesion, err := s.lockSesion(tx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, ErrSesionNoAbierta
	}

	esperado, err := montoEsperadoTx(tx, sesion)
	if err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("arqueo: sumas")
		return nil, ErrArqueoFallido
	}
	diferencia := req.MontoCierre.Sub(esperado)

	oldValues := map[string]any{
		"monto_cierre": sesion.MontoCierre,
		"diferencia":   sesion.Diferencia,
		"estado":       sesion.Estado,
	}

	now := time.Now()
	montoCierre := req.MontoCierre
	sesion.MontoCierre = &montoCierre
	sesion.Diferencia = &diferencia
	sesion.Estado = model.SesionArqueada
	sesion.ArqueadaPor = &autorizador.ID
	sesion.ArqueadaAt = &now
	sesion.ClosedAt = &now
	agregarNota(sesion, now, autorizador.Nombre, req.Observaciones)

	if err := tx.UpdateSesion(sesion); err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("arqueo: update")
		return nil, ErrArqueoFallido
	}

	newValues := map[string]any{
		"monto_cierre": montoCierre,
		"diferencia":   diferencia,
		"estado":       sesion.Estado,
	}
	if err := s.escribirAuditoria(tx, autorizador.ID, model.AuditArqueoRealizado, sesion.ID, oldValues, newValues, req.Observaciones, ip); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("arqueo: commit")
		return nil, ErrArqueoFallido
	}
	committed = true

	s.invalidarReportes(sesionID)

	return &dto.DiscrepanciaResponse{
		SesionCajaID:       sesion.ID.String(),
		MontoEsperado:      esperado,
		MontoReal:          montoCierre,
		Diferencia:         diferencia,
		RequiereAprobacion: diferencia.Abs().GreaterThanOrEqual(UmbralDiscrepancia),
	}, nil
}

// ── AprobarArqueo ────────────────────────────────────────────────────────────
// Second-level sign-off for large discrepancies. Stricter role tier, same
// lock and audit discipline. Only an already arqueada session can move to
// aprobada — the state machine never goes backward.

func (s *arqueoService) AprobarArqueo(ctx context.Context, req dto.AprobacionRequest, ip *string) (*dto.AprobacionResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}

	tx, err := s.repo.Begin(ctx, false)
	if err != nil {
		log.Error().Err(err).Msg("aprobacion: begin")
		return nil, ErrArqueoFallido
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	aprobador, err := s.validarPin(ctx, req.Pin, rolesAprobacion)
	if err != nil {
		return nil, err
	}

	sesion, err := s.lockSesion(tx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionArqueada {
		return nil, ErrSesionNoArqueada
	}

	oldValues := map[string]any{"estado": sesion.Estado}

	now := time.Now()
	sesion.Estado = model.SesionAprobada
	sesion.AprobadaPor = &aprobador.ID
	sesion.AprobadaAt = &now
	agregarNota(sesion, now, aprobador.Nombre, req.Observaciones)

	if err := tx.UpdateSesion(sesion); err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("aprobacion: update")
		return nil, ErrArqueoFallido
	}

	newValues := map[string]any{"estado": sesion.Estado}
	if err := s.escribirAuditoria(tx, aprobador.ID, model.AuditArqueoAprobado, sesion.ID, oldValues, newValues, req.Observaciones, ip); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("aprobacion: commit")
		return nil, ErrArqueoFallido
	}
	committed = true

	s.invalidarReportes(sesionID)

	return &dto.AprobacionResponse{
		SesionCajaID: sesion.ID.String(),
		Estado:       sesion.Estado,
	}, nil
}

// ── Historial ────────────────────────────────────────────────────────────────

func (s *arqueoService) Historial(ctx context.Context, req dto.HistorialArqueosRequest) (*dto.HistorialArqueosResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	filtro := repository.FiltroHistorial{
		PuntoDeVenta:    req.PuntoDeVenta,
		MinDiscrepancia: req.MinDiscrepancia,
		Limit:           pageSize,
		Offset:          (page - 1) * pageSize,
	}
	if req.Desde != nil {
		t, err := time.Parse(time.RFC3339, *req.Desde)
		if err != nil {
			return nil, ErrFechaInvalida
		}
		filtro.Desde = &t
	}
	if req.Hasta != nil {
		t, err := time.Parse(time.RFC3339, *req.Hasta)
		if err != nil {
			return nil, ErrFechaInvalida
		}
		filtro.Hasta = &t
	}

	rows, total, err := s.repo.Historial(ctx, filtro)
	if err != nil {
		log.Error().Err(err).Msg("historial de arqueos")
		return nil, ErrArqueoFallido
	}

	records := make([]dto.HistorialArqueoRecord, len(rows))
	for i, r := range rows {
		records[i] = dto.HistorialArqueoRecord{
			SesionCajaID:  r.ID.String(),
			PuntoDeVenta:  r.PuntoDeVenta,
			MontoInicial:  r.MontoInicial,
			MontoCierre:   r.MontoCierre,
			Diferencia:    r.Diferencia,
			Estado:        r.Estado,
			ArqueadaPor:   r.ArqueadaNombre,
			ArqueadaAt:    formatearFecha(r.ArqueadaAt),
			AprobadaPor:   r.AprobadaNombre,
			AprobadaAt:    formatearFecha(r.AprobadaAt),
			Observaciones: r.Observaciones,
		}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.HistorialArqueosResponse{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// validarPin loads every active user of the eligible roles and returns the
// first one whose PIN matches. Hashed PINs are checked with bcrypt; legacy
// unhashed rows fall back to a constant-time byte comparison.
func (s *arqueoService) validarPin(ctx context.Context, pin string, roles []string) (*model.Usuario, error) {
	usuarios, err := s.usuarios.FindActivosPorRoles(ctx, roles...)
	if err != nil {
		log.Error().Err(err).Msg("validar pin: consulta de usuarios")
		return nil, ErrArqueoFallido
	}
	if u := buscarAutorizadorPorPin(usuarios, pin); u != nil {
		return u, nil
	}
	return nil, ErrPinInvalido
}

func buscarAutorizadorPorPin(usuarios []model.Usuario, pin string) *model.Usuario {
	for i := range usuarios {
		u := &usuarios[i]
		if u.PinHash != nil && *u.PinHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(*u.PinHash), []byte(pin)) == nil {
				return u
			}
			continue
		}
		if u.Pin != nil && subtle.ConstantTimeCompare([]byte(*u.Pin), []byte(pin)) == 1 {
			return u
		}
	}
	return nil
}

func (s *arqueoService) lockSesion(tx repository.ArqueoTx, sesionID uuid.UUID) (*model.SesionCaja, error) {
	sesion, err := tx.LockSesion(sesionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLockNoDisponible):
			return nil, ErrSesionEnProceso
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrSesionNoEncontrada
		default:
			log.Error().Err(err).Str("sesion", sesionID.String()).Msg("lock de sesion")
			return nil, ErrArqueoFallido
		}
	}
	return sesion, nil
}

// montoEsperadoTx runs both aggregations inside the given transaction and
// applies the canonical formula. The committer and the calculator share this
// path so they can never diverge.
func montoEsperadoTx(tx repository.ArqueoTx, sesion *model.SesionCaja) (decimal.Decimal, error) {
	ventas, err := tx.SumVentasEfectivo(sesion.ID)
	if err != nil {
		return decimal.Zero, err
	}
	movs, err := tx.SumMovimientosEfectivo(sesion.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return montoEsperado(sesion.MontoInicial, ventas, movs), nil
}

// montoEsperado = inicial + ventas en efectivo + depositos + ingresos −
// gastos − retiros. Movement amounts are stored positive; the tipo decides
// the sign.
func montoEsperado(inicial, ventas decimal.Decimal, movs map[string]decimal.Decimal) decimal.Decimal {
	return inicial.
		Add(ventas).
		Add(movs[model.MovimientoDeposito]).
		Add(movs[model.MovimientoIngreso]).
		Sub(movs[model.MovimientoGasto]).
		Sub(movs[model.MovimientoRetiro])
}

func (s *arqueoService) escribirAuditoria(tx repository.ArqueoTx, usuarioID uuid.UUID, accion string, sesionID uuid.UUID, oldValues, newValues map[string]any, justificacion string, ip *string) error {
	oldJSON, err := json.Marshal(oldValues)
	if err != nil {
		return ErrArqueoFallido
	}
	newJSON, err := json.Marshal(newValues)
	if err != nil {
		return ErrArqueoFallido
	}
	entry := &model.AuditLog{
		UsuarioID:     usuarioID,
		Accion:        accion,
		EntityType:    "sesion_caja",
		EntityID:      sesionID,
		OldValues:     string(oldJSON),
		NewValues:     string(newJSON),
		Justificacion: justificacion,
		IPAddress:     ip,
	}
	if err := tx.CreateAudit(entry); err != nil {
		// The operation is defined to not exist unless it is audited.
		log.Error().Err(err).Str("sesion", sesionID.String()).Str("accion", accion).Msg("auditoria fallida, rollback")
		return ErrArqueoFallido
	}
	return nil
}

func agregarNota(sesion *model.SesionCaja, now time.Time, autor, nota string) {
	linea := fmt.Sprintf("[%s] %s: %s", now.Format(time.RFC3339), autor, nota)
	if sesion.Observaciones != nil && *sesion.Observaciones != "" {
		linea = *sesion.Observaciones + "\n" + linea
	}
	sesion.Observaciones = &linea
}

// invalidarReportes drops the cached treasury/report views after a commit.
// Best effort: the consumers re-fetch on their next read anyway.
func (s *arqueoService) invalidarReportes(sesionID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	keys := []string{"reportes:tesoreria", "reportes:arqueos", "caja:reporte:" + sesionID.String()}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("invalidacion de cache de reportes")
	}
}

func formatearFecha(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
