package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
)

// Repository handles product persistence. Every query is scoped by company.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows product listings. Nil fields are ignored.
type ListFilter struct {
	Category  *string
	Available *bool
	Search    *string
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

var editableColumns = []string{"name", "description", "category", "image_url", "base_price", "is_available", "sections", "updated_at"}

// Update writes the catalog columns of product. Stock is only written when withStock
// is set: checkouts decrement it concurrently and a stale read must not undo them.
func (r *Repository) Update(ctx context.Context, product *models.Product, withStock bool) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	cols := editableColumns
	if withStock {
		cols = append(cols[:len(cols):len(cols)], "stock")
	}
	return r.db.WithContext(ctx).
		Model(product).
		Where("company_id = ?", product.CompanyID).
		Select(cols).
		Updates(product).Error
}

func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List orders by category then name, which is also the menu display order.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.Category != nil {
		q = q.Where("category = ?", strings.TrimSpace(*filter.Category))
	}
	if filter.Available != nil {
		q = q.Where("is_available = ?", *filter.Available)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
	}

	var products []models.Product
	if err := q.Order("category ASC").Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStockWithTx takes qty units from a limited-stock product. It reports false
// when the remaining stock is lower than qty; unlimited products always succeed.
func (r *Repository) DecrementStockWithTx(tx *gorm.DB, companyID, id uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Product{}).
		Where("company_id = ? AND id = ? AND stock IS NOT NULL AND stock >= ?", companyID, id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var product models.Product
	if err := tx.Select("id", "stock").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&product).Error; err != nil {
		return false, err
	}
	return product.Stock == nil, nil
}

// RestoreStockWithTx gives qty units back to a limited-stock product. Unlimited or
// deleted products are left alone.
func (r *Repository) RestoreStockWithTx(tx *gorm.DB, companyID, id uuid.UUID, qty int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Product{}).
		Where("company_id = ? AND id = ? AND stock IS NOT NULL", companyID, id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
