package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	"github.com/saborhub/saborhub-backend/pkg/pagination"
)

// Repository handles order persistence. Reads always preload lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListQuery filters a company's order history. Rows come back newest first.
type ListQuery struct {
	Status *enums.OrderStatus
	Cursor *pagination.Cursor
	Limit  int
}

// CreateWithTx inserts the order together with its lines.
func (r *Repository) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithTx locks the order row on Postgres for a status change.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, companyID, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	q := tx.Preload("Lines", orderLines)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
	}
	var order models.Order
	if err := q.Where("company_id = ? AND id = ?", companyID, id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateWithTx saves the order columns only; lines never change after submission.
func (r *Repository) UpdateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit(clause.Associations).Save(order).Error
}

// List fetches up to q.Limit rows after the cursor.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, q ListQuery) ([]models.Order, error) {
	db := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Where("company_id = ?", companyID)
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Cursor != nil {
		db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var orders []models.Order
	if err := db.Order("created_at DESC").Order("id DESC").Limit(q.Limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListForCourier returns orders assigned to courierID that are still on the road.
func (r *Repository) ListForCourier(ctx context.Context, companyID uuid.UUID, courierID string, statuses []enums.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Where("company_id = ? AND courier_id = ? AND status IN ?", companyID, courierID, statuses).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAwaitingBefore returns orders of every company still waiting for payment
// confirmation that were created before cutoff, oldest first.
func (r *Repository) ListAwaitingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusAwaitingConfirmation, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
