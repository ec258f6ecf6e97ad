package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order. Values keep the
// business vocabulary carried over from the legacy schema.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDIENTE"
	OrderStatusConfirmed  OrderStatus = "CONFIRMADO"
	OrderStatusProduction OrderStatus = "EN_PRODUCCION"
	OrderStatusCompleted  OrderStatus = "COMPLETADO"
	OrderStatusCanceled   OrderStatus = "CANCELADO"
	OrderStatusDelivered  OrderStatus = "ENTREGADO"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProduction,
	OrderStatusCompleted,
	OrderStatusCanceled,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsCancelable reports whether an order in this status may still be cancelled.
func (o OrderStatus) IsCancelable() bool {
	switch o {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProduction:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
