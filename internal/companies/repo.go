package companies

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
)

// Repository handles company persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	if company == nil {
		return fmt.Errorf("company is required")
	}
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) Update(ctx context.Context, company *models.Company) error {
	if company == nil {
		return fmt.Errorf("company is required")
	}
	return r.db.WithContext(ctx).Save(company).Error
}

// FindByIDWithTx locks the row on Postgres; SQLite ignores the locking clause.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Company, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var company models.Company
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// NextOrderNumberWithTx bumps the company counter and returns the new value. The
// UPDATE takes the row lock, so concurrent submissions serialize on it.
func (r *Repository) NextOrderNumberWithTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Company{}).
		Where("id = ?", id).
		UpdateColumn("next_order_number", gorm.Expr("next_order_number + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var next int64
	if err := tx.Model(&models.Company{}).
		Where("id = ?", id).
		Select("next_order_number").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
