package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/internal/inventory"
	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/logger"
	"github.com/confetex/taller-backend/pkg/metrics"
	"github.com/confetex/taller-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle and the stock mutations tied to it.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDetail, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stock   inventory.Adjuster
	taxRate decimal.Decimal
	metrics *metrics.OrderMetrics
	log     *logger.Logger
}

// NewService builds the order service with the required collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	stock inventory.Adjuster,
	taxRate decimal.Decimal,
	orderMetrics *metrics.OrderMetrics,
	log *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate out of range [0, 1]")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		stock:   stock,
		taxRate: taxRate,
		metrics: orderMetrics,
		log:     log,
	}, nil
}

// PlaceOrder creates the order row, its snapshot line items, and the per-item
// stock decrements as one unit of work. The unit prices come from the catalog
// rows read inside the same transaction, never from the caller, and any
// failure rolls back every row and decrement already applied.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDetail, error) {
	if err := validatePlaceOrderInput(input); err != nil {
		return nil, err
	}

	start := time.Now()
	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.CustomerID != nil {
			exists, err := repo.CustomerExists(ctx, *input.CustomerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found").
					WithDetails(map[string]any{"customer_id": input.CustomerID.String()})
			}
		}

		productsByID, err := s.loadProducts(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		subtotalCents := 0
		for _, item := range input.Items {
			product := productsByID[item.ProductID]
			subtotalCents += product.PriceCents * item.Qty
		}
		taxCents := s.computeTax(subtotalCents)

		order := &models.Order{
			CustomerID:    input.CustomerID,
			Status:        enums.OrderStatusPending,
			SubtotalCents: subtotalCents,
			TaxCents:      taxCents,
			TotalCents:    subtotalCents + taxCents,
			PaymentMethod: input.PaymentMethod,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		lineItems := make([]models.OrderLineItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := productsByID[item.ProductID]
			productID := product.ID
			lineItems = append(lineItems, models.OrderLineItem{
				OrderID:        order.ID,
				ProductID:      &productID,
				Name:           product.Name,
				SKU:            product.SKU,
				UnitPriceCents: product.PriceCents,
				Qty:            item.Qty,
				SubtotalCents:  product.PriceCents * item.Qty,
			})
		}
		if err := repo.CreateLineItems(ctx, lineItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		for _, item := range input.Items {
			if _, err := s.stock.AdjustStock(ctx, tx, item.ProductID, -item.Qty); err != nil {
				return err
			}
		}

		order.Items = lineItems
		detail = toOrderDetail(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPlaced()
	s.metrics.ObservePlacement(time.Since(start))
	for range input.Items {
		s.metrics.IncStockAdjustment(-1)
	}
	if s.log != nil {
		logCtx := s.log.WithFields(ctx, map[string]any{
			"order_id":    detail.ID.String(),
			"total_cents": detail.TotalCents,
			"item_count":  len(detail.Items),
		})
		s.log.Info(logCtx, "order placed")
	}
	return detail, nil
}

// CancelOrder marks the order terminal and restores stock from the line-item
// snapshots, all inside one transaction. Line items whose product was deleted
// after the sale are skipped and reported as warnings; they never abort the
// remaining restorations.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *CancelResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
					WithDetails(map[string]any{"order_id": orderID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCanceled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled").
				WithDetails(map[string]any{"order_id": orderID.String()})
		}
		if !order.Status.IsCancelable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in its current status").
				WithDetails(map[string]any{
					"order_id": orderID.String(),
					"estado":   order.Status.String(),
				})
		}

		// Line items are the only record of what to restore, so read them
		// before touching the status column.
		items, err := repo.FindLineItemsByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}

		changed, err := repo.MarkCanceled(ctx, orderID, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order cancelled")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled").
				WithDetails(map[string]any{"order_id": orderID.String()})
		}

		restored := 0
		var warnings error
		for _, item := range items {
			if item.ProductID == nil {
				warnings = multierr.Append(warnings, fmt.Errorf("line item %s: product deleted, stock not restored", item.ID))
				continue
			}
			if _, err := s.stock.AdjustStock(ctx, tx, *item.ProductID, item.Qty); err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					warnings = multierr.Append(warnings, fmt.Errorf("line item %s: product %s deleted, stock not restored", item.ID, item.ProductID))
					continue
				}
				return err
			}
			restored++
		}

		result = &CancelResult{
			OrderID:       orderID,
			Status:        enums.OrderStatusCanceled,
			RestoredItems: restored,
			Warnings:      warningMessages(warnings),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCanceled()
	for i := 0; i < result.RestoredItems; i++ {
		s.metrics.IncStockAdjustment(1)
	}
	if s.log != nil {
		logCtx := s.log.WithFields(ctx, map[string]any{
			"order_id":       orderID.String(),
			"restored_items": result.RestoredItems,
		})
		s.log.Info(logCtx, "order cancelled")
		for _, warning := range result.Warnings {
			s.log.Warn(logCtx, warning)
		}
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": orderID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDetail(order), nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func validatePlaceOrderInput(input PlaceOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required").
				WithDetails(map[string]any{"item_index": i})
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"item_index": i, "product_id": item.ProductID.String()})
		}
		if _, dup := seen[item.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		seen[item.ProductID] = struct{}{}
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return nil
}

func (s *service) loadProducts(ctx context.Context, repo Repository, items []PlaceOrderItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available for sale").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
	}
	return byID, nil
}

// computeTax rounds half up on the cent, matching how the legacy invoices
// were issued.
func (s *service) computeTax(subtotalCents int) int {
	if s.taxRate.IsZero() || subtotalCents == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(subtotalCents)).Mul(s.taxRate).Round(0).IntPart())
}

func warningMessages(err error) []string {
	collected := multierr.Errors(err)
	if len(collected) == 0 {
		return nil
	}
	messages := make([]string, 0, len(collected))
	for _, e := range collected {
		messages = append(messages, e.Error())
	}
	return messages
}
