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
	"github.com/shopspring/decimal"
)

var ErrStockInsuficiente = errors.New("stock insuficiente para completar la venta")

type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ListarPorSesion(ctx context.Context, sesionID uuid.UUID, page, limit int) ([]dto.VentaResponse, int64, error)
}

type ventaService struct {
	repo      repository.VentaRepository
	productos repository.ProductoRepository
	caja      CajaService
}

func NewVentaService(repo repository.VentaRepository, productos repository.ProductoRepository, caja CajaService) VentaService {
	return &ventaService{repo: repo, productos: productos, caja: caja}
}

// RegistrarVenta validates the open session, prices each line from the
// catalog and allocates stock First-Expired-First-Out across lotes. The
// venta, its items and all stock decrements commit atomically.
func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if err := s.caja.FindSesionAbierta(ctx, sesionID); err != nil {
		return nil, err
	}

	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id inválido: %w", err)
		}
		clienteID = &cid
	}

	venta := &model.Venta{
		SesionCajaID: sesionID,
		UsuarioID:    usuarioID,
		ClienteID:    clienteID,
		MetodoPago:   req.MetodoPago,
	}

	total := decimal.Zero
	var descuentos []repository.DescuentoLote
	nombres := make(map[uuid.UUID]string)

	for _, item := range req.Items {
		productoID, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		producto, err := s.productos.FindByID(ctx, productoID)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", item.ProductoID)
		}
		if !producto.Activo {
			return nil, fmt.Errorf("producto %s inactivo", producto.Nombre)
		}
		nombres[producto.ID] = producto.Nombre

		asignados, err := s.asignarFEFO(ctx, producto.ID, item.Cantidad)
		if err != nil {
			return nil, err
		}
		descuentos = append(descuentos, asignados...)

		subtotal := producto.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     producto.ID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: producto.PrecioVenta,
			Subtotal:       subtotal,
		})
		total = total.Add(subtotal)
	}
	venta.Total = total

	if err := s.repo.Create(ctx, venta, descuentos); err != nil {
		if errors.Is(err, repository.ErrStockInsuficiente) {
			return nil, ErrStockInsuficiente
		}
		return nil, err
	}

	return ventaResponse(venta, nombres), nil
}

// asignarFEFO walks the available lotes nearest-expiry-first and splits the
// requested quantity across them. The guarded decrements in the repository
// re-check each lote at commit time, so a stale read here only surfaces as
// ErrStockInsuficiente, never as a negative stock.
func (s *ventaService) asignarFEFO(ctx context.Context, productoID uuid.UUID, cantidad int) ([]repository.DescuentoLote, error) {
	lotes, err := s.productos.LotesDisponibles(ctx, productoID)
	if err != nil {
		return nil, err
	}
	var descuentos []repository.DescuentoLote
	restante := cantidad
	for _, lote := range lotes {
		if restante == 0 {
			break
		}
		tomar := restante
		if tomar > lote.Stock {
			tomar = lote.Stock
		}
		descuentos = append(descuentos, repository.DescuentoLote{
			LoteID:     lote.ID,
			ProductoID: productoID,
			Cantidad:   tomar,
		})
		restante -= tomar
	}
	if restante > 0 {
		return nil, ErrStockInsuficiente
	}
	return descuentos, nil
}

func (s *ventaService) ListarPorSesion(ctx context.Context, sesionID uuid.UUID, page, limit int) ([]dto.VentaResponse, int64, error) {
	ventas, total, err := s.repo.ListBySesion(ctx, sesionID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.VentaResponse, len(ventas))
	for i := range ventas {
		resp[i] = *ventaResponse(&ventas[i], nil)
	}
	return resp, total, nil
}

func ventaResponse(v *model.Venta, nombres map[uuid.UUID]string) *dto.VentaResponse {
	items := make([]dto.VentaItemResponse, len(v.Items))
	for i, it := range v.Items {
		items[i] = dto.VentaItemResponse{
			ProductoID:     it.ProductoID.String(),
			Nombre:         nombres[it.ProductoID],
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
	}
	return &dto.VentaResponse{
		ID:           v.ID.String(),
		NumeroTicket: v.NumeroTicket,
		SesionCajaID: v.SesionCajaID.String(),
		MetodoPago:   v.MetodoPago,
		Total:        v.Total,
		Items:        items,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
}
