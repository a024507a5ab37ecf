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

// ── In-memory ProductoRepository ─────────────────────────────────────────────

type memProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	lotes     []model.LoteProducto
}

func newMemProductoRepo() *memProductoRepo {
	return &memProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *memProductoRepo) addProducto(p *model.Producto) *model.Producto {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return p
}

func (r *memProductoRepo) addLote(productoID uuid.UUID, stock int, vencimiento time.Time) uuid.UUID {
	l := model.LoteProducto{
		ID:          uuid.New(),
		ProductoID:  productoID,
		Codigo:      "L-" + vencimiento.Format("200601"),
		Vencimiento: vencimiento,
		Stock:       stock,
	}
	r.lotes = append(r.lotes, l)
	return l.ID
}

func (r *memProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.addProducto(p)
	return nil
}

func (r *memProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memProductoRepo) FindByBarcode(_ context.Context, barcode string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.CodigoBarras == barcode {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memProductoRepo) List(_ context.Context, _ string, _, _ int) ([]model.Producto, int64, error) {
	var all []model.Producto
	for _, p := range r.productos {
		all = append(all, *p)
	}
	return all, int64(len(all)), nil
}

func (r *memProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *memProductoRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	if p, ok := r.productos[id]; ok {
		p.Activo = false
	}
	return nil
}

func (r *memProductoRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if p, ok := r.productos[id]; ok {
		p.Activo = true
	}
	return nil
}

func (r *memProductoRepo) CreateLote(_ context.Context, l *model.LoteProducto) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.lotes = append(r.lotes, *l)
	if p, ok := r.productos[l.ProductoID]; ok {
		p.StockActual += l.Stock
	}
	return nil
}

func (r *memProductoRepo) LotesDisponibles(_ context.Context, productoID uuid.UUID) ([]model.LoteProducto, error) {
	var result []model.LoteProducto
	for _, l := range r.lotes {
		if l.ProductoID == productoID && l.Stock > 0 {
			result = append(result, l)
		}
	}
	// vencimiento ASC, como la consulta real
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].Vencimiento.Before(result[j-1].Vencimiento); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

var _ repository.ProductoRepository = (*memProductoRepo)(nil)

// ── In-memory VentaRepository ────────────────────────────────────────────────

type memVentaRepo struct {
	productos  *memProductoRepo
	ventas     []model.Venta
	nextTicket int64
}

func (r *memVentaRepo) Create(_ context.Context, v *model.Venta, descuentos []repository.DescuentoLote) error {
	// Misma semántica que los decrementos protegidos: si algún lote ya no
	// alcanza, no se persiste nada.
	for _, d := range descuentos {
		for i := range r.productos.lotes {
			if r.productos.lotes[i].ID == d.LoteID && r.productos.lotes[i].Stock < d.Cantidad {
				return repository.ErrStockInsuficiente
			}
		}
	}
	for _, d := range descuentos {
		for i := range r.productos.lotes {
			if r.productos.lotes[i].ID == d.LoteID {
				r.productos.lotes[i].Stock -= d.Cantidad
			}
		}
		if p, ok := r.productos.productos[d.ProductoID]; ok {
			p.StockActual -= d.Cantidad
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.nextTicket++
	v.NumeroTicket = r.nextTicket
	v.CreatedAt = time.Now()
	r.ventas = append(r.ventas, *v)
	return nil
}

func (r *memVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	for i := range r.ventas {
		if r.ventas[i].ID == id {
			return &r.ventas[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memVentaRepo) ListBySesion(_ context.Context, sesionID uuid.UUID, limit, offset int) ([]model.Venta, int64, error) {
	var result []model.Venta
	for _, v := range r.ventas {
		if v.SesionCajaID == sesionID {
			result = append(result, v)
		}
	}
	total := int64(len(result))
	if offset > len(result) {
		offset = len(result)
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

var _ repository.VentaRepository = (*memVentaRepo)(nil)

// ── Fixtures ─────────────────────────────────────────────────────────────────

func escenarioVenta(t *testing.T) (*memProductoRepo, *memVentaRepo, *memCajaRepo, service.VentaService, uuid.UUID) {
	t.Helper()
	productos := newMemProductoRepo()
	ventas := &memVentaRepo{productos: productos}
	cajas := newMemCajaRepo()
	cajaSvc := service.NewCajaService(cajas)
	svc := service.NewVentaService(ventas, productos, cajaSvc)

	resp, err := cajaSvc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		PuntoDeVenta: 1,
		MontoInicial: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	return productos, ventas, cajas, svc, uuid.MustParse(resp.SesionCajaID)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRegistrarVentaFEFO(t *testing.T) {
	productos, ventas, _, svc, sesionID := escenarioVenta(t)

	p := productos.addProducto(&model.Producto{
		Nombre:      "Ibuprofeno 400mg",
		PrecioVenta: decimal.NewFromInt(1500),
		StockActual: 30,
		Activo:      true,
	})
	// El lote que vence antes se agota primero aunque se cargó después.
	tardio := productos.addLote(p.ID, 20, time.Now().AddDate(1, 0, 0))
	temprano := productos.addLote(p.ID, 10, time.Now().AddDate(0, 2, 0))

	resp, err := svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		SesionCajaID: sesionID.String(),
		MetodoPago:   model.PagoEfectivo,
		Items: []dto.VentaItemRequest{
			{ProductoID: p.ID.String(), Cantidad: 15},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "22500", resp.Total.String())
	assert.Equal(t, int64(1), resp.NumeroTicket)

	stockDe := func(id uuid.UUID) int {
		for _, l := range productos.lotes {
			if l.ID == id {
				return l.Stock
			}
		}
		t.Fatalf("lote %s no encontrado", id)
		return 0
	}
	assert.Equal(t, 0, stockDe(temprano), "el lote más próximo a vencer se agota primero")
	assert.Equal(t, 15, stockDe(tardio))
	assert.Equal(t, 15, p.StockActual)
	require.Len(t, ventas.ventas, 1)
}

func TestRegistrarVentaStockInsuficiente(t *testing.T) {
	productos, ventas, _, svc, sesionID := escenarioVenta(t)

	p := productos.addProducto(&model.Producto{
		Nombre:      "Amoxicilina 500mg",
		PrecioVenta: decimal.NewFromInt(3000),
		StockActual: 5,
		Activo:      true,
	})
	productos.addLote(p.ID, 5, time.Now().AddDate(0, 6, 0))

	_, err := svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		SesionCajaID: sesionID.String(),
		MetodoPago:   model.PagoDebito,
		Items: []dto.VentaItemRequest{
			{ProductoID: p.ID.String(), Cantidad: 6},
		},
	})
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Empty(t, ventas.ventas)
	assert.Equal(t, 5, p.StockActual, "nada se descuenta cuando la venta falla")
}

func TestRegistrarVentaSesionCerrada(t *testing.T) {
	productos, _, cajas, svc, sesionID := escenarioVenta(t)

	p := productos.addProducto(&model.Producto{
		Nombre:      "Paracetamol 500mg",
		PrecioVenta: decimal.NewFromInt(900),
		StockActual: 10,
		Activo:      true,
	})
	productos.addLote(p.ID, 10, time.Now().AddDate(0, 6, 0))
	cajas.sesiones[sesionID].Estado = model.SesionArqueada

	_, err := svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		SesionCajaID: sesionID.String(),
		MetodoPago:   model.PagoEfectivo,
		Items: []dto.VentaItemRequest{
			{ProductoID: p.ID.String(), Cantidad: 1},
		},
	})
	assert.ErrorIs(t, err, service.ErrSesionNoAbierta)
}

func TestRegistrarVentaProductoInactivo(t *testing.T) {
	productos, _, _, svc, sesionID := escenarioVenta(t)

	p := productos.addProducto(&model.Producto{
		Nombre:      "Clonazepam 2mg",
		PrecioVenta: decimal.NewFromInt(4500),
		StockActual: 10,
		Activo:      false,
	})
	productos.addLote(p.ID, 10, time.Now().AddDate(0, 6, 0))

	_, err := svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		SesionCajaID: sesionID.String(),
		MetodoPago:   model.PagoEfectivo,
		Items: []dto.VentaItemRequest{
			{ProductoID: p.ID.String(), Cantidad: 1},
		},
	})
	assert.ErrorContains(t, err, "inactivo")
}

func TestListarPorSesionPaginado(t *testing.T) {
	productos, _, _, svc, sesionID := escenarioVenta(t)

	p := productos.addProducto(&model.Producto{
		Nombre:      "Loratadina 10mg",
		PrecioVenta: decimal.NewFromInt(1200),
		StockActual: 100,
		Activo:      true,
	})
	productos.addLote(p.ID, 100, time.Now().AddDate(0, 6, 0))

	for i := 0; i < 5; i++ {
		_, err := svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
			SesionCajaID: sesionID.String(),
			MetodoPago:   model.PagoEfectivo,
			Items: []dto.VentaItemRequest{
				{ProductoID: p.ID.String(), Cantidad: 1},
			},
		})
		require.NoError(t, err)
	}

	page2, total, err := svc.ListarPorSesion(context.Background(), sesionID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page2, 2)
}
