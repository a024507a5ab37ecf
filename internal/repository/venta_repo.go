package repository

import (
	"context"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DescuentoLote is one FEFO allocation: take Cantidad units from LoteID.
type DescuentoLote struct {
	LoteID     uuid.UUID
	ProductoID uuid.UUID
	Cantidad   int
}

type VentaRepository interface {
	// Create persists the venta with its items and applies the lot/stock
	// decrements in a single transaction. Guarded updates return
	// ErrStockInsuficiente when a concurrent sale drained a lot first.
	Create(ctx context.Context, v *model.Venta, descuentos []DescuentoLote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	ListBySesion(ctx context.Context, sesionCajaID uuid.UUID, limit, offset int) ([]model.Venta, int64, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta, descuentos []DescuentoLote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}

		porProducto := make(map[uuid.UUID]int)
		for _, d := range descuentos {
			res := tx.Model(&model.LoteProducto{}).
				Where("id = ? AND stock >= ?", d.LoteID, d.Cantidad).
				Update("stock", gorm.Expr("stock - ?", d.Cantidad))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrStockInsuficiente
			}
			porProducto[d.ProductoID] += d.Cantidad
		}

		for productoID, cantidad := range porProducto {
			res := tx.Model(&model.Producto{}).
				Where("id = ? AND stock_actual >= ?", productoID, cantidad).
				Update("stock_actual", gorm.Expr("stock_actual - ?", cantidad))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrStockInsuficiente
			}
		}
		return nil
	})
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) ListBySesion(ctx context.Context, sesionCajaID uuid.UUID, limit, offset int) ([]model.Venta, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Venta{}).Where("sesion_caja_id = ?", sesionCajaID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sesion_caja_id = ?", sesionCajaID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ventas).Error
	return ventas, total, err
}
