package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgLockNotAvailable is the SQLSTATE raised by SELECT … FOR UPDATE NOWAIT
// when another transaction holds the row.
const pgLockNotAvailable = "55P03"

// ArqueoTx is the unit of work for a reconciliation. All reads and writes
// happen inside one SERIALIZABLE transaction so that read-then-decide is
// atomic with the update. The caller must Commit or Rollback exactly once.
type ArqueoTx interface {
	FindSesion(id uuid.UUID) (*model.SesionCaja, error)
	// LockSesion takes the session row lock without waiting. Returns
	// ErrLockNoDisponible when another transaction holds it.
	LockSesion(id uuid.UUID) (*model.SesionCaja, error)
	SumVentasEfectivo(sesionID uuid.UUID) (decimal.Decimal, error)
	SumMovimientosEfectivo(sesionID uuid.UUID) (map[string]decimal.Decimal, error)
	UpdateSesion(s *model.SesionCaja) error
	CreateAudit(e *model.AuditLog) error
	Commit() error
	Rollback() error
}

// FiltroHistorial accumulates optional, parameterized filter values for the
// reconciliation history query. Unknown columns cannot be injected: each
// field maps to a fixed predicate.
type FiltroHistorial struct {
	PuntoDeVenta    *int
	Desde           *time.Time
	Hasta           *time.Time
	MinDiscrepancia *decimal.Decimal
	Limit           int
	Offset          int
}

// HistorialRow is a reconciled session joined with reconciler/approver names.
type HistorialRow struct {
	ID             uuid.UUID
	PuntoDeVenta   int
	MontoInicial   decimal.Decimal
	MontoCierre    *decimal.Decimal
	Diferencia     *decimal.Decimal
	Estado         string
	ArqueadaNombre *string
	ArqueadaAt     *time.Time
	AprobadaNombre *string
	AprobadaAt     *time.Time
	Observaciones  *string
}

type ArqueoRepository interface {
	// Begin opens a SERIALIZABLE transaction. readOnly is used by the
	// discrepancy calculator, which never writes.
	Begin(ctx context.Context, readOnly bool) (ArqueoTx, error)
	Historial(ctx context.Context, f FiltroHistorial) ([]HistorialRow, int64, error)
}

type arqueoRepo struct{ db *gorm.DB }

func NewArqueoRepository(db *gorm.DB) ArqueoRepository { return &arqueoRepo{db: db} }

func (r *arqueoRepo) Begin(ctx context.Context, readOnly bool) (ArqueoTx, error) {
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{
		Isolation: sql.LevelSerializable,
		ReadOnly:  readOnly,
	})
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &arqueoTx{tx: tx}, nil
}

func (r *arqueoRepo) Historial(ctx context.Context, f FiltroHistorial) ([]HistorialRow, int64, error) {
	aplicarFiltros := func(q *gorm.DB) *gorm.DB {
		q = q.Where("sesion_cajas.estado IN ?", []string{model.SesionArqueada, model.SesionAprobada})
		if f.PuntoDeVenta != nil {
			q = q.Where("sesion_cajas.punto_de_venta = ?", *f.PuntoDeVenta)
		}
		if f.Desde != nil {
			q = q.Where("sesion_cajas.arqueada_at >= ?", *f.Desde)
		}
		if f.Hasta != nil {
			q = q.Where("sesion_cajas.arqueada_at <= ?", *f.Hasta)
		}
		if f.MinDiscrepancia != nil {
			q = q.Where("ABS(sesion_cajas.diferencia) >= ?", *f.MinDiscrepancia)
		}
		return q
	}

	var total int64
	if err := aplicarFiltros(r.db.WithContext(ctx).Model(&model.SesionCaja{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []HistorialRow
	err := aplicarFiltros(r.db.WithContext(ctx).Model(&model.SesionCaja{})).
		Select(`sesion_cajas.id, sesion_cajas.punto_de_venta, sesion_cajas.monto_inicial,
			sesion_cajas.monto_cierre, sesion_cajas.diferencia, sesion_cajas.estado,
			ar.nombre AS arqueada_nombre, sesion_cajas.arqueada_at,
			ap.nombre AS aprobada_nombre, sesion_cajas.aprobada_at,
			sesion_cajas.observaciones`).
		Joins("LEFT JOIN usuarios ar ON ar.id = sesion_cajas.arqueada_por").
		Joins("LEFT JOIN usuarios ap ON ap.id = sesion_cajas.aprobada_por").
		Order("sesion_cajas.arqueada_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ── Transaction implementation ───────────────────────────────────────────────

type arqueoTx struct{ tx *gorm.DB }

func (t *arqueoTx) FindSesion(id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	if err := t.tx.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *arqueoTx) LockSesion(id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := t.tx.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, ErrLockNoDisponible
		}
		return nil, err
	}
	return &s, nil
}

func (t *arqueoTx) SumVentasEfectivo(sesionID uuid.UUID) (decimal.Decimal, error) {
	return sumVentasEfectivo(t.tx, sesionID)
}

func (t *arqueoTx) SumMovimientosEfectivo(sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	return sumMovimientosEfectivo(t.tx, sesionID)
}

func (t *arqueoTx) UpdateSesion(s *model.SesionCaja) error {
	return t.tx.Save(s).Error
}

func (t *arqueoTx) CreateAudit(e *model.AuditLog) error {
	return t.tx.Create(e).Error
}

func (t *arqueoTx) Commit() error   { return t.tx.Commit().Error }
func (t *arqueoTx) Rollback() error { return t.tx.Rollback().Error }

// ── Shared aggregations ──────────────────────────────────────────────────────
// Used both inside arqueo transactions and by the plain session report, so
// the calculator and the committer always run the exact same queries.

func sumVentasEfectivo(db *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.Model(&model.Venta{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("sesion_caja_id = ? AND metodo_pago = ?", sesionID, model.PagoEfectivo).
		Scan(&row).Error
	return row.Total, err
}

func sumMovimientosEfectivo(db *gorm.DB, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Tipo  string
		Total decimal.Decimal
	}
	err := db.Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("sesion_caja_id = ? AND es_efectivo = true", sesionID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		sums[r.Tipo] = r.Total
	}
	return sums, nil
}
