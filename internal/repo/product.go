package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/transport"
)

type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	Featured   *bool
	Status     string
	Sort       string
	Offset     int
	Limit      int
}

var productSorts = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"price":       "price ASC",
	"-price":      "price DESC",
	"title":       "title ASC",
	"-title":      "title DESC",
}

// ResolveProduct looks a product up by either addressing scheme: the
// primary UUID or the numeric id kept for migrated legacy records.
func (r *GormRepo) ResolveProduct(ctx context.Context, ref transport.ProductRef) (*models.Product, error) {
	var product models.Product
	q := r.DB.WithContext(ctx)
	if ref.Legacy {
		q = q.Where("legacy_id = ?", ref.LegacyID)
	} else {
		q = q.Where("id = ?", ref.ID)
	}
	if err := q.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["-created_at"]
	}

	var items []models.Product
	if err := q.Preload("Category").Order(order).Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Save(product).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DebitStock decrements stock by qty only when enough stock is present.
// The conditional UPDATE is what makes reservation linearizable across
// concurrent orders: of two requests racing for the last unit, exactly one
// matches the stock >= qty predicate.
func (r *GormRepo) DebitStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.syncStockStatus(ctx, id)
}

func (r *GormRepo) RestoreStock(ctx context.Context, id uuid.UUID, qty int64) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	return r.syncStockStatus(ctx, id)
}

// syncStockStatus mirrors the status derivation of Product.BeforeSave for
// the column-level stock updates that bypass gorm hooks.
func (r *GormRepo) syncStockStatus(ctx context.Context, id uuid.UUID) error {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if err := q.Where("id = ? AND stock = 0", id).
		UpdateColumn("status", models.ProductStatusOutOfStock).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock > 0 AND status = ?", id, models.ProductStatusOutOfStock).
		UpdateColumn("status", models.ProductStatusActive).Error
}
