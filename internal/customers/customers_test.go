package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/pagination"
)

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Order{},
		&models.OrderLineItem{},
	))
	return db
}

func newCustomersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCustomerCRUD(t *testing.T) {
	t.Parallel()

	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	dto, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Textiles Rivera"})
	require.NoError(t, err)
	assert.Equal(t, "Textiles Rivera", dto.Name)

	newName := "Textiles Rivera SA"
	updated, err := svc.UpdateCustomer(ctx, dto.ID, UpdateCustomerInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Textiles Rivera SA", updated.Name)

	loaded, err := svc.GetCustomer(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Name, loaded.Name)

	require.NoError(t, svc.DeleteCustomer(ctx, dto.ID))

	_, err = svc.GetCustomer(ctx, dto.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateCustomerValidation(t *testing.T) {
	t.Parallel()

	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)

	_, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Name: "   "})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDeleteCustomerWithOrders(t *testing.T) {
	t.Parallel()

	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	dto, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Con Pedidos"})
	require.NoError(t, err)

	order := &models.Order{
		CustomerID: &dto.ID,
		Status:     enums.OrderStatusPending,
		TotalCents: 1000,
	}
	require.NoError(t, db.Create(order).Error)

	err = svc.DeleteCustomer(ctx, dto.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestListCustomersSearch(t *testing.T) {
	t.Parallel()

	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db)
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Textiles Rivera"})
	require.NoError(t, err)
	_, err = svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Boutique Luna"})
	require.NoError(t, err)

	list, err := svc.ListCustomers(ctx, pagination.Params{}, "luna")
	require.NoError(t, err)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, "Boutique Luna", list.Customers[0].Name)

	list, err = svc.ListCustomers(ctx, pagination.Params{}, "")
	require.NoError(t, err)
	assert.Len(t, list.Customers, 2)
}
