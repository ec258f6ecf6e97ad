package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
)

// PlaceOrderItemInput is one requested product-quantity pair. The caller
// never supplies a price; the unit price is always read server side.
type PlaceOrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput carries everything needed to create an order. A nil
// CustomerID records a direct sale.
type PlaceOrderInput struct {
	CustomerID    *uuid.UUID
	Items         []PlaceOrderItemInput
	PaymentMethod *enums.PaymentMethod
}

// LineItemDetail is the read model for one snapshot line.
type LineItemDetail struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id"`
	Name           string     `json:"name"`
	SKU            string     `json:"sku"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Qty            int        `json:"qty"`
	SubtotalCents  int        `json:"subtotal_cents"`
}

// OrderDetail is the full read model returned by placement and lookups.
type OrderDetail struct {
	ID            uuid.UUID            `json:"id"`
	CustomerID    *uuid.UUID           `json:"customer_id"`
	Status        enums.OrderStatus    `json:"estado"`
	SubtotalCents int                  `json:"subtotal_cents"`
	TaxCents      int                  `json:"tax_cents"`
	TotalCents    int                  `json:"total_cents"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	Items         []LineItemDetail     `json:"items"`
	CanceledAt    *time.Time           `json:"canceled_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// OrderSummary is the listing row shape.
type OrderSummary struct {
	ID         uuid.UUID         `json:"id"`
	CustomerID *uuid.UUID        `json:"customer_id"`
	Status     enums.OrderStatus `json:"estado"`
	TotalCents int               `json:"total_cents"`
	ItemCount  int               `json:"item_count"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderList is one cursor page of orders.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CancelResult reports the outcome of a cancellation, including line items
// whose stock could not be restored because the product no longer exists.
type CancelResult struct {
	OrderID       uuid.UUID         `json:"order_id"`
	Status        enums.OrderStatus `json:"estado"`
	RestoredItems int               `json:"restored_items"`
	Warnings      []string          `json:"warnings,omitempty"`
}

func toOrderDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		Status:        order.Status,
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		PaymentMethod: order.PaymentMethod,
		CanceledAt:    order.CanceledAt,
		CreatedAt:     order.CreatedAt,
	}
	detail.Items = make([]LineItemDetail, 0, len(order.Items))
	for _, item := range order.Items {
		detail.Items = append(detail.Items, LineItemDetail{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			SKU:            item.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			SubtotalCents:  item.SubtotalCents,
		})
	}
	return detail
}
