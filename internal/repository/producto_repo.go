package repository

import (
	"context"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	// CreateLote registers a received batch and bumps the product stock
	// atomically.
	CreateLote(ctx context.Context, l *model.LoteProducto) error
	// LotesDisponibles returns lots with remaining stock ordered
	// First-Expired-First-Out.
	LotesDisponibles(ctx context.Context, productoID uuid.UUID) ([]model.LoteProducto, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Preload("Lotes").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("codigo_barras = ? AND activo = true", barcode).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Producto, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Producto{}).Where("activo = true")
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("nombre ILIKE ? OR codigo_barras = ? OR principio_activo ILIKE ?", like, search, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var productos []model.Producto
	err := base().Order("nombre ASC").Limit(limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", false).Error
}

func (r *productoRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", true).Error
}

func (r *productoRepo) CreateLote(ctx context.Context, l *model.LoteProducto) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return tx.Model(&model.Producto{}).
			Where("id = ?", l.ProductoID).
			Update("stock_actual", gorm.Expr("stock_actual + ?", l.Stock)).Error
	})
}

func (r *productoRepo) LotesDisponibles(ctx context.Context, productoID uuid.UUID) ([]model.LoteProducto, error) {
	var lotes []model.LoteProducto
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND stock > 0", productoID).
		Order("vencimiento ASC").
		Find(&lotes).Error
	return lotes, err
}
