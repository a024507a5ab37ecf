package service

import (
	"context"
	"errors"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	BuscarPorDocumento(ctx context.Context, documento string) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, search string, page, limit int) ([]dto.ClienteResponse, int64, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:     req.Nombre,
		Documento:  req.Documento,
		Telefono:   req.Telefono,
		Email:      req.Email,
		ObraSocial: req.ObraSocial,
		Activo:     true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteResponse(c)
	return &resp, nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	resp := clienteResponse(c)
	return &resp, nil
}

func (s *clienteService) BuscarPorDocumento(ctx context.Context, documento string) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByDocumento(ctx, documento)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	resp := clienteResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, search string, page, limit int) ([]dto.ClienteResponse, int64, error) {
	clientes, total, err := s.repo.List(ctx, search, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		resp[i] = clienteResponse(&clientes[i])
	}
	return resp, total, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	if req.Nombre != "" {
		c.Nombre = req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.ObraSocial != nil {
		c.ObraSocial = req.ObraSocial
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteResponse(c)
	return &resp, nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func clienteResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:         c.ID.String(),
		Nombre:     c.Nombre,
		Documento:  c.Documento,
		Telefono:   c.Telefono,
		Email:      c.Email,
		ObraSocial: c.ObraSocial,
		Activo:     c.Activo,
	}
}
