package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

// Period bounds a report query. Zero values leave the bound open.
type Period struct {
	From time.Time
	To   time.Time
}

// SalesSummary aggregates order activity for a period. Cancelled orders are
// counted separately and excluded from the revenue sums.
type SalesSummary struct {
	OrderCount    int64 `json:"order_count"`
	CanceledCount int64 `json:"canceled_count"`
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductID  *uuid.UUID `json:"product_id"`
	Name       string     `json:"name"`
	SKU        string     `json:"sku"`
	Qty        int64      `json:"qty"`
	TotalCents int64      `json:"total_cents"`
}

// MaterialConsumption is one row of the raw-material usage report.
type MaterialConsumption struct {
	MaterialID uuid.UUID `json:"material_id"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	Qty        int64     `json:"qty"`
}

// Service exposes read-only reporting queries.
type Service interface {
	SalesSummary(ctx context.Context, period Period) (*SalesSummary, error)
	TopProducts(ctx context.Context, period Period, limit int) ([]TopProduct, error)
	MaterialConsumption(ctx context.Context, period Period) ([]MaterialConsumption, error)
}

type service struct {
	db *gorm.DB
}

// NewService constructs the reporting service.
func NewService(dbHandle *gorm.DB) (Service, error) {
	if dbHandle == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: dbHandle}, nil
}

func (s *service) SalesSummary(ctx context.Context, period Period) (*SalesSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	qb := s.db.WithContext(ctx).Table("orders")
	qb = applyPeriod(qb, "created_at", period)

	var summary SalesSummary
	err := qb.Select(
		"COUNT(CASE WHEN estado <> ? THEN 1 END) AS order_count, "+
			"COUNT(CASE WHEN estado = ? THEN 1 END) AS canceled_count, "+
			"COALESCE(SUM(CASE WHEN estado <> ? THEN subtotal_cents END), 0) AS subtotal_cents, "+
			"COALESCE(SUM(CASE WHEN estado <> ? THEN tax_cents END), 0) AS tax_cents, "+
			"COALESCE(SUM(CASE WHEN estado <> ? THEN total_cents END), 0) AS total_cents",
		enums.OrderStatusCanceled, enums.OrderStatusCanceled, enums.OrderStatusCanceled,
		enums.OrderStatusCanceled, enums.OrderStatusCanceled,
	).Scan(&summary).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales summary")
	}
	return &summary, nil
}

func (s *service) TopProducts(ctx context.Context, period Period, limit int) ([]TopProduct, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	qb := s.db.WithContext(ctx).
		Table("order_line_items li").
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("o.estado <> ?", enums.OrderStatusCanceled)
	qb = applyPeriod(qb, "o.created_at", period)

	var rows []TopProduct
	err := qb.Select(
		"li.product_id, li.name, li.sku, " +
			"SUM(li.qty) AS qty, SUM(li.subtotal_cents) AS total_cents",
	).
		Group("li.product_id, li.name, li.sku").
		Order("qty DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top products")
	}
	return rows, nil
}

func (s *service) MaterialConsumption(ctx context.Context, period Period) ([]MaterialConsumption, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	qb := s.db.WithContext(ctx).
		Table("stock_movements sm").
		Joins("JOIN materials m ON m.id = sm.material_id").
		Where("sm.tipo = ?", enums.MovementTypeOut)
	qb = applyPeriod(qb, "sm.created_at", period)

	var rows []MaterialConsumption
	err := qb.Select("sm.material_id, m.name, m.unit, SUM(sm.qty) AS qty").
		Group("sm.material_id, m.name, m.unit").
		Order("qty DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "material consumption")
	}
	return rows, nil
}

func applyPeriod(qb *gorm.DB, column string, period Period) *gorm.DB {
	if !period.From.IsZero() {
		qb = qb.Where(column+" >= ?", period.From)
	}
	if !period.To.IsZero() {
		qb = qb.Where(column+" < ?", period.To)
	}
	return qb
}

func validatePeriod(period Period) error {
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From) {
		return pkgerrors.New(pkgerrors.CodeValidation, "period end precedes start")
	}
	return nil
}
