package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/enums"
)

// Order is the container for a sale. The total is captured at placement and
// never recomputed afterward; only the status column mutates after creation.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	Status        enums.OrderStatus    `gorm:"column:estado;not null;default:'PENDIENTE'"`
	SubtotalCents int                  `gorm:"column:subtotal_cents;not null"`
	TaxCents      int                  `gorm:"column:tax_cents;not null;default:0"`
	TotalCents    int                  `gorm:"column:total_cents;not null"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method"`
	CanceledAt    *time.Time           `gorm:"column:canceled_at"`
	Customer      *Customer            `gorm:"foreignKey:CustomerID"`
	Items         []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
