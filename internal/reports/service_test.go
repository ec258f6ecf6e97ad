package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.Material{},
		&models.StockMovement{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, totalCents int, created time.Time, lineName string, qty int) {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		Status:        status,
		SubtotalCents: totalCents,
		TotalCents:    totalCents,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(order).Error)

	productID := uuid.New()
	item := &models.OrderLineItem{
		OrderID:        order.ID,
		ProductID:      &productID,
		Name:           lineName,
		SKU:            "SKU-" + lineName,
		UnitPriceCents: totalCents / qty,
		Qty:            qty,
		SubtotalCents:  totalCents,
		CreatedAt:      created,
	}
	require.NoError(t, db.Create(item).Error)
}

func TestSalesSummaryExcludesCanceled(t *testing.T) {
	t.Parallel()

	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, db, enums.OrderStatusPending, 4000, base.Add(time.Hour), "Camisa", 2)
	seedOrder(t, db, enums.OrderStatusCompleted, 6000, base.Add(2*time.Hour), "Pantalon", 3)
	seedOrder(t, db, enums.OrderStatusCanceled, 9000, base.Add(3*time.Hour), "Vestido", 1)
	seedOrder(t, db, enums.OrderStatusPending, 5000, base.AddDate(0, 1, 0), "Fuera", 1)

	summary, err := svc.SalesSummary(context.Background(), Period{
		From: base,
		To:   base.AddDate(0, 0, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.OrderCount)
	assert.Equal(t, int64(1), summary.CanceledCount)
	assert.Equal(t, int64(10000), summary.TotalCents)
}

func TestTopProducts(t *testing.T) {
	t.Parallel()

	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, db, enums.OrderStatusCompleted, 4000, base, "Camisa", 4)
	seedOrder(t, db, enums.OrderStatusCompleted, 2000, base.Add(time.Hour), "Pantalon", 1)
	seedOrder(t, db, enums.OrderStatusCanceled, 9000, base.Add(2*time.Hour), "Camisa", 9)

	rows, err := svc.TopProducts(context.Background(), Period{}, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Camisa", rows[0].Name)
	assert.Equal(t, int64(4), rows[0].Qty)
	assert.Equal(t, "Pantalon", rows[1].Name)
}

func TestMaterialConsumption(t *testing.T) {
	t.Parallel()

	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	material := &models.Material{Name: "Tela Algodon", Unit: "metros", Stock: 100}
	require.NoError(t, db.Create(material).Error)

	for _, movement := range []models.StockMovement{
		{MaterialID: material.ID, Type: enums.MovementTypeOut, Qty: 10},
		{MaterialID: material.ID, Type: enums.MovementTypeOut, Qty: 5},
		{MaterialID: material.ID, Type: enums.MovementTypeIn, Qty: 50},
	} {
		m := movement
		require.NoError(t, db.Create(&m).Error)
	}

	rows, err := svc.MaterialConsumption(context.Background(), Period{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(15), rows[0].Qty)
	assert.Equal(t, "metros", rows[0].Unit)
}

func TestInvalidPeriod(t *testing.T) {
	t.Parallel()

	db := setupReportsTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	_, err = svc.SalesSummary(context.Background(), Period{
		From: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
