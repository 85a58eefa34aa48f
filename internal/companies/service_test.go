package companies

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/db/dbtest"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
)

func newService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func strPtr(v string) *string { return &v }

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestCreateAndGetBySlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	fee := decimal.RequireFromString("7.50")
	created, err := svc.Create(ctx, CreateCompanyInput{
		Name:        " Açaí da Praia ",
		Slug:        "Acai-Da-Praia",
		Phone:       strPtr("  "),
		DeliveryFee: &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, "Açaí da Praia", created.Name)
	assert.Equal(t, "acai-da-praia", created.Slug)
	assert.Nil(t, created.Phone, "blank optional fields stay null")
	assert.True(t, created.IsActive)

	found, err := svc.GetBySlug(ctx, "ACAI-DA-PRAIA")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.DeliveryFee)
	assert.True(t, fee.Equal(*found.DeliveryFee))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	negative := decimal.NewFromInt(-1)

	cases := map[string]CreateCompanyInput{
		"missing name": {Slug: "x"},
		"bad slug":     {Name: "X", Slug: "no spaces allowed"},
		"negative fee": {Name: "X", Slug: "x", DeliveryFee: &negative},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCompanyInput{Name: "A", Slug: "burger-house"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCompanyInput{Name: "B", Slug: "burger-house"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestGetBySlugHidesInactiveCompanies(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCompanyInput{Name: "Closed", Slug: "closed"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateSettings(ctx, created.ID, UpdateSettingsInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, "closed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetBySlug(ctx, "never-existed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateSettings(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCompanyInput{Name: "Pizza", Slug: "pizza"})
	require.NoError(t, err)

	fee := decimal.RequireFromString("4.00")
	updated, err := svc.UpdateSettings(ctx, created.ID, UpdateSettingsInput{
		Name:         strPtr("Pizza Nostra"),
		WorkingHours: strPtr("18h-23h"),
		DeliveryFee:  &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Nostra", updated.Name)
	assert.Equal(t, "18h-23h", *updated.WorkingHours)
	assert.True(t, fee.Equal(*updated.DeliveryFee))

	cleared, err := svc.UpdateSettings(ctx, created.ID, UpdateSettingsInput{ClearDeliveryFee: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DeliveryFee)

	_, err = svc.UpdateSettings(ctx, created.ID, UpdateSettingsInput{Name: strPtr(" ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateSettings(ctx, uuid.New(), UpdateSettingsInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNextOrderNumberWithTx(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCompanyInput{Name: "Tacos", Slug: "tacos"})
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		var got int64
		require.NoError(t, repo.db.Transaction(func(tx *gorm.DB) error {
			var err error
			got, err = repo.NextOrderNumberWithTx(tx, created.ID)
			return err
		}))
		assert.Equal(t, want, got)
	}

	err = repo.db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.NextOrderNumberWithTx(tx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
