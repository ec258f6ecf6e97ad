package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	"github.com/confetex/taller-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindLineItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
	MarkCanceled(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ListFilters narrows the order listing.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}
