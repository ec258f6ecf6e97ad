package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/internal/inventory"
	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

type testTx struct {
	db *gorm.DB
}

func (r testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx.WithContext(ctx))
	})
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderLineItem{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, taxRate decimal.Decimal) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), testTx{db: db}, inventory.NewAdjuster(), taxRate, nil, nil)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceCents, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCustomer(t *testing.T, db *gorm.DB) *models.Customer {
	t.Helper()

	customer := &models.Customer{Name: "Textiles Rivera"}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func reloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Product {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return &product
}

func TestPlaceOrderHappyPath(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, detail.Status)
	assert.Equal(t, 4500, detail.SubtotalCents)
	assert.Equal(t, 0, detail.TaxCents)
	assert.Equal(t, 4500, detail.TotalCents)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, 1500, detail.Items[0].UnitPriceCents)
	assert.Equal(t, "Camisa Oxford", detail.Items[0].Name)

	assert.Equal(t, 7, reloadProduct(t, db, product.ID).Stock)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 7)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 10}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	assert.Equal(t, 7, reloadProduct(t, db, product.ID).Stock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestPlaceOrderRollsBackEverything(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	plenty := seedProduct(t, db, "Pantalon Chino", 2000, 50)
	scarce := seedProduct(t, db, "Saco Lino", 8000, 1)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{
			{ProductID: plenty.ID, Qty: 5},
			{ProductID: scarce.ID, Qty: 2},
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	assert.Equal(t, 50, reloadProduct(t, db, plenty.ID).Stock)
	assert.Equal(t, 1, reloadProduct(t, db, scarce.ID).Stock)

	var orderCount, itemCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderLineItem{}).Count(&itemCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)
}

func TestPlaceOrderSequentialContention(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Blusa Seda", 3200, 10)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 6}},
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 6}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	assert.Equal(t, 4, reloadProduct(t, db, product.ID).Stock)
}

func TestPlaceOrderConcurrentContention(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows a single writer; one pooled connection keeps parallel
	// placements from failing with busy errors instead of the stock guard.
	sqlDB.SetMaxOpenConns(1)

	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Blusa Seda", 3200, 10)

	const workers = 4
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, placeErr := svc.PlaceOrder(context.Background(), PlaceOrderInput{
				Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 6}},
			})
			errs <- placeErr
		}()
	}
	wg.Wait()
	close(errs)

	var successes, rejections int
	for placeErr := range errs {
		if placeErr == nil {
			successes++
			continue
		}
		typed := pkgerrors.As(placeErr)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		rejections++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejections)
	assert.Equal(t, 4, reloadProduct(t, db, product.ID).Stock)
}

func TestPlaceOrderAppliesTax(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.RequireFromString("0.16"))
	product := seedProduct(t, db, "Vestido Gala", 5000, 20)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 10000, detail.SubtotalCents)
	assert.Equal(t, 1600, detail.TaxCents)
	assert.Equal(t, 11600, detail.TotalCents)
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Falda Plisada", 1800, 5)

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{name: "empty items", input: PlaceOrderInput{}},
		{
			name: "zero quantity",
			input: PlaceOrderInput{
				Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 0}},
			},
		},
		{
			name: "negative quantity",
			input: PlaceOrderInput{
				Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: -1}},
			},
		},
		{
			name: "duplicate product",
			input: PlaceOrderInput{
				Items: []PlaceOrderItemInput{
					{ProductID: product.ID, Qty: 1},
					{ProductID: product.ID, Qty: 2},
				},
			},
		},
		{
			name: "missing product id",
			input: PlaceOrderInput{
				Items: []PlaceOrderItemInput{{Qty: 1}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}

	assert.Equal(t, 5, reloadProduct(t, db, product.ID).Stock)
}

func TestPlaceOrderUnknownReferences(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Chamarra Mezclilla", 4200, 8)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: uuid.New(), Qty: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	unknownCustomer := uuid.New()
	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: &unknownCustomer,
		Items:      []PlaceOrderItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	assert.Equal(t, 8, reloadProduct(t, db, product.ID).Stock)
}

func TestPlaceOrderRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Descontinuado", 900, 4)
	require.NoError(t, db.Model(product).Update("is_active", false).Error)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelOrderRestoresStock(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)
	customer := seedCustomer(t, db)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: &customer.ID,
		Items:      []PlaceOrderItemInput{{ProductID: product.ID, Qty: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, reloadProduct(t, db, product.ID).Stock)

	result, err := svc.CancelOrder(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCanceled, result.Status)
	assert.Equal(t, 1, result.RestoredItems)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, 10, reloadProduct(t, db, product.ID).Stock)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", detail.ID).Error)
	assert.Equal(t, enums.OrderStatusCanceled, order.Status)
	assert.NotNil(t, order.CanceledAt)
}

func TestCancelOrderIdempotent(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 3}},
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), detail.ID)
	require.NoError(t, err)
	require.Equal(t, 10, reloadProduct(t, db, product.ID).Stock)

	_, err = svc.CancelOrder(context.Background(), detail.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	assert.Equal(t, 10, reloadProduct(t, db, product.ID).Stock)
}

func TestCancelOrderUsesSnapshotPrice(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(product).Update("price_cents", 9999).Error)

	result, err := svc.CancelOrder(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RestoredItems)

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order, "id = ?", detail.ID).Error)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1500, order.Items[0].UnitPriceCents)
	assert.Equal(t, 3000, order.TotalCents)
	assert.Equal(t, 10, reloadProduct(t, db, product.ID).Stock)
}

func TestCancelOrderSkipsDeletedProducts(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	kept := seedProduct(t, db, "Camisa Oxford", 1500, 10)
	doomed := seedProduct(t, db, "Gorra Promo", 500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{
			{ProductID: kept.ID, Qty: 2},
			{ProductID: doomed.ID, Qty: 4},
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Product{}, "id = ?", doomed.ID).Error)

	result, err := svc.CancelOrder(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RestoredItems)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "not restored")

	assert.Equal(t, 10, reloadProduct(t, db, kept.ID).Stock)
}

func TestCancelOrderNotFound(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)

	_, err := svc.CancelOrder(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelOrderTerminalStatus(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", detail.ID).
		Update("estado", enums.OrderStatusDelivered).Error)

	_, err = svc.CancelOrder(context.Background(), detail.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	assert.Equal(t, 9, reloadProduct(t, db, product.ID).Stock)
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, decimal.Zero)
	product := seedProduct(t, db, "Camisa Oxford", 1500, 10)

	detail, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Qty: 2}},
	})
	require.NoError(t, err)

	loaded, err := svc.GetOrder(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, loaded.ID)
	assert.Equal(t, detail.TotalCents, loaded.TotalCents)
	require.Len(t, loaded.Items, 1)

	_, err = svc.GetOrder(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
