package tests

import (
	"context"
	"testing"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"
	"farmapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Full in-memory CajaRepository ────────────────────────────────────────────

type memCajaRepo struct {
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
	ventas      map[uuid.UUID]decimal.Decimal
}

func newMemCajaRepo() *memCajaRepo {
	return &memCajaRepo{
		sesiones: make(map[uuid.UUID]*model.SesionCaja),
		ventas:   make(map[uuid.UUID]decimal.Decimal),
	}
}

func (r *memCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.OpenedAt = time.Now()
	r.sesiones[s.ID] = s
	return nil
}

func (r *memCajaRepo) FindSesionAbiertaPorPDV(_ context.Context, pdv int) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.PuntoDeVenta == pdv && s.Estado == model.SesionAbierta {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCajaRepo) FindSesionAbiertaPorUsuario(_ context.Context, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.UsuarioID == usuarioID && s.Estado == model.SesionAbierta {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *memCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajaRepo) ListMovimientos(_ context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	var result []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *memCajaRepo) SumVentasEfectivo(_ context.Context, sesionID uuid.UUID) (decimal.Decimal, error) {
	return r.ventas[sesionID], nil
}

func (r *memCajaRepo) SumMovimientosEfectivo(_ context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID && m.EsEfectivo {
			sums[m.Tipo] = sums[m.Tipo].Add(m.Monto)
		}
	}
	return sums, nil
}

var _ repository.CajaRepository = (*memCajaRepo)(nil)

func esEfectivo(v bool) *bool { return &v }

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAbrirCaja(t *testing.T) {
	repo := newMemCajaRepo()
	svc := service.NewCajaService(repo)

	resp, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 1,
		MontoInicial: decimal.NewFromInt(50000),
	})

	require.NoError(t, err)
	assert.Equal(t, model.SesionAbierta, resp.Estado)
	assert.Equal(t, 1, resp.PuntoDeVenta)
	assert.Equal(t, "50000", resp.MontoInicial.String())
	// Sin movimientos, el esperado es el fondo inicial
	assert.Equal(t, "50000", resp.MontoEsperado.String())
}

func TestAbrirCajaDuplicada(t *testing.T) {
	repo := newMemCajaRepo()
	svc := service.NewCajaService(repo)

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 1,
		MontoInicial: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	// Second open on same punto_de_venta should fail
	_, err = svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 1,
		MontoInicial: decimal.NewFromInt(20000),
	})
	assert.ErrorContains(t, err, "ya existe una caja abierta")
}

func TestReporteConMovimientos(t *testing.T) {
	repo := newMemCajaRepo()
	svc := service.NewCajaService(repo)

	resp, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 2,
		MontoInicial: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	sesionID := uuid.MustParse(resp.SesionCajaID)
	repo.ventas[sesionID] = decimal.NewFromInt(250000)

	registrar := func(tipo string, monto int64, efectivo bool) {
		err := svc.RegistrarMovimiento(context.Background(), dto.MovimientoManualRequest{
			SesionCajaID: sesionID.String(),
			Tipo:         tipo,
			Monto:        decimal.NewFromInt(monto),
			EsEfectivo:   esEfectivo(efectivo),
			Descripcion:  "movimiento de prueba",
		})
		require.NoError(t, err)
	}

	registrar(model.MovimientoGasto, 20000, true)
	registrar(model.MovimientoRetiro, 30000, true)
	registrar(model.MovimientoDeposito, 5000, true)
	registrar(model.MovimientoIngreso, 1000, true)
	// Un gasto pagado con tarjeta no toca el efectivo del cajón
	registrar(model.MovimientoGasto, 99999, false)

	reporte, err := svc.ObtenerReporte(context.Background(), sesionID)
	require.NoError(t, err)

	// 100000 + 250000 + 5000 + 1000 − 20000 − 30000 = 306000
	assert.Equal(t, "306000", reporte.MontoEsperado.String())
	assert.Len(t, reporte.Movimientos, 5)
}

func TestMovimientoSobreSesionCerrada(t *testing.T) {
	repo := newMemCajaRepo()
	svc := service.NewCajaService(repo)

	resp, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 3,
		MontoInicial: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	sesionID := uuid.MustParse(resp.SesionCajaID)
	repo.sesiones[sesionID].Estado = model.SesionArqueada

	err = svc.RegistrarMovimiento(context.Background(), dto.MovimientoManualRequest{
		SesionCajaID: sesionID.String(),
		Tipo:         model.MovimientoGasto,
		Monto:        decimal.NewFromInt(500),
		EsEfectivo:   esEfectivo(true),
		Descripcion:  "compra de librería",
	})
	assert.ErrorIs(t, err, service.ErrSesionNoAbierta)
	assert.Empty(t, repo.movimientos)
}

func TestGetActivaSinSesion(t *testing.T) {
	repo := newMemCajaRepo()
	svc := service.NewCajaService(repo)

	resp, err := svc.GetActiva(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, resp)
}
