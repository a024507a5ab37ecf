package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
)

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, search string, page, limit int) ([]dto.ProductoResponse, int64, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	IngresarLote(ctx context.Context, req dto.IngresarLoteRequest) (*dto.ProductoResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
}

func NewProductoService(repo repository.ProductoRepository) ProductoService {
	return &productoService{repo: repo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		CodigoBarras:    req.CodigoBarras,
		Nombre:          req.Nombre,
		Descripcion:     req.Descripcion,
		Laboratorio:     req.Laboratorio,
		PrincipioActivo: strings.ToLower(strings.TrimSpace(req.PrincipioActivo)),
		RequiereReceta:  req.RequiereReceta,
		PrecioCosto:     req.PrecioCosto,
		PrecioVenta:     req.PrecioVenta,
		StockMinimo:     req.StockMinimo,
		Activo:          true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := productoResponse(p, false)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	resp := productoResponse(p, true)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, search string, page, limit int) ([]dto.ProductoResponse, int64, error) {
	productos, total, err := s.repo.List(ctx, search, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = productoResponse(&productos[i], false)
	}
	return resp, total, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Laboratorio != "" {
		p.Laboratorio = req.Laboratorio
	}
	if req.PrincipioActivo != "" {
		p.PrincipioActivo = strings.ToLower(strings.TrimSpace(req.PrincipioActivo))
	}
	if req.RequiereReceta != nil {
		p.RequiereReceta = *req.RequiereReceta
	}
	if req.PrecioCosto != nil {
		p.PrecioCosto = *req.PrecioCosto
	}
	if req.PrecioVenta != nil {
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productoResponse(p, true)
	return &resp, nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Desactivar(ctx, id)
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivar(ctx, id)
}

func (s *productoService) IngresarLote(ctx context.Context, req dto.IngresarLoteRequest) (*dto.ProductoResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, errors.New("producto_id inválido")
	}
	vencimiento, err := time.Parse(time.RFC3339, req.Vencimiento)
	if err != nil {
		return nil, errors.New("vencimiento: fecha inválida")
	}
	if vencimiento.Before(time.Now()) {
		return nil, errors.New("no se puede ingresar un lote ya vencido")
	}

	lote := &model.LoteProducto{
		ProductoID:  productoID,
		Codigo:      req.Codigo,
		Vencimiento: vencimiento,
		Stock:       req.Stock,
	}
	if err := s.repo.CreateLote(ctx, lote); err != nil {
		return nil, err
	}
	return s.ObtenerPorID(ctx, productoID)
}

func productoResponse(p *model.Producto, conLotes bool) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		ID:              p.ID.String(),
		CodigoBarras:    p.CodigoBarras,
		Nombre:          p.Nombre,
		Descripcion:     p.Descripcion,
		Laboratorio:     p.Laboratorio,
		PrincipioActivo: p.PrincipioActivo,
		RequiereReceta:  p.RequiereReceta,
		PrecioVenta:     p.PrecioVenta,
		StockActual:     p.StockActual,
		StockMinimo:     p.StockMinimo,
		Activo:          p.Activo,
	}
	if conLotes {
		for _, l := range p.Lotes {
			resp.Lotes = append(resp.Lotes, dto.LoteResponse{
				ID:          l.ID.String(),
				Codigo:      l.Codigo,
				Vencimiento: l.Vencimiento.Format(time.RFC3339),
				Stock:       l.Stock,
			})
		}
	}
	return resp
}
