package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product, withStock bool) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]models.Product, error)
	DecrementStockWithTx(tx *gorm.DB, companyID, id uuid.UUID, qty int) (bool, error)
	RestoreStockWithTx(tx *gorm.DB, companyID, id uuid.UUID, qty int) error
}

// Service manages a company's catalog and hands pricing snapshots to the cart.
type Service interface {
	Create(ctx context.Context, companyID uuid.UUID, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, companyID, productID uuid.UUID, input ProductInput) (*ProductDTO, error)
	SetAvailability(ctx context.Context, companyID, productID uuid.UUID, available bool) (*ProductDTO, error)
	Delete(ctx context.Context, companyID, productID uuid.UUID) error
	Get(ctx context.Context, companyID, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]ProductDTO, error)
	PublicMenu(ctx context.Context, companyID uuid.UUID) ([]MenuCategory, error)
	Snapshot(ctx context.Context, companyID, productID uuid.UUID) (pricing.Product, error)
	// ReserveStockWithTx decrements limited stock for every product in qtyByProduct
	// inside the caller's transaction.
	ReserveStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error
	// RestoreStockWithTx undoes a reservation when an order is canceled or refused.
	RestoreStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error
}

type service struct {
	repo productRepository
}

func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, companyID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	input = input.normalized()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{CompanyID: companyID}
	input.apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, companyID, productID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	input = input.normalized()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product, err := s.find(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	stockEdited := !sameStock(product.Stock, input.Stock)
	input.apply(product)
	if err := s.repo.Update(ctx, product, stockEdited); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	// stock may have moved under us
	if product, err = s.find(ctx, companyID, productID); err != nil {
		return nil, err
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) SetAvailability(ctx context.Context, companyID, productID uuid.UUID, available bool) (*ProductDTO, error) {
	product, err := s.find(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	product.IsAvailable = available
	if err := s.repo.Update(ctx, product, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product availability")
	}
	if product, err = s.find(ctx, companyID, productID); err != nil {
		return nil, err
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, companyID, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, companyID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, companyID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.find(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, FromModel(p))
	}
	return out, nil
}

// PublicMenu lists available products grouped by category, keeping repository order.
func (s *service) PublicMenu(ctx context.Context, companyID uuid.UUID) ([]MenuCategory, error) {
	available := true
	products, err := s.repo.List(ctx, companyID, ListFilter{Available: &available})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}

	categories := make([]MenuCategory, 0)
	index := map[string]int{}
	for _, p := range products {
		if p.Stock != nil && *p.Stock == 0 {
			continue
		}
		i, ok := index[p.Category]
		if !ok {
			i = len(categories)
			index[p.Category] = i
			categories = append(categories, MenuCategory{Name: p.Category})
		}
		categories[i].Products = append(categories[i].Products, FromModel(p))
	}
	return categories, nil
}

func (s *service) Snapshot(ctx context.Context, companyID, productID uuid.UUID) (pricing.Product, error) {
	product, err := s.find(ctx, companyID, productID)
	if err != nil {
		return pricing.Product{}, err
	}
	return Snapshot(*product), nil
}

func (s *service) ReserveStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error {
	for _, productID := range sortedIDs(qtyByProduct) {
		qty := qtyByProduct[productID]
		ok, err := s.repo.DecrementStockWithTx(tx, companyID, productID, qty)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product no longer exists").
					WithDetails(map[string]any{"product_id": productID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": productID.String(), "requested": qty})
		}
	}
	return nil
}

func (s *service) RestoreStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error {
	for _, productID := range sortedIDs(qtyByProduct) {
		if err := s.repo.RestoreStockWithTx(tx, companyID, productID, qtyByProduct[productID]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

// sortedIDs gives concurrent transactions the same lock order.
func sortedIDs(qtyByProduct map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(qtyByProduct))
	for id := range qtyByProduct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (s *service) find(ctx context.Context, companyID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, companyID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func sameStock(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateInput(input ProductInput) error {
	err := pricing.ValidateProduct(input.snapshot(""))
	if input.Category == "" {
		err = multierr.Append(err, fmt.Errorf("%w: category is required", pricing.ErrInvalidProduct))
	}
	if err != nil {
		problems := make([]string, 0)
		for _, e := range multierr.Errors(err) {
			problems = append(problems, e.Error())
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product").
			WithDetails(map[string]any{"problems": problems})
	}
	return nil
}
