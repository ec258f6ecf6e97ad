package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/enums"
)

// Product represents a catalog listing for a finished garment.
type Product struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SKU         string     `gorm:"column:sku;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;not null"`
	Description *string    `gorm:"column:description"`
	CategoryID  *uuid.UUID `gorm:"column:category_id;type:uuid"`
	PriceCents  int        `gorm:"column:price_cents;not null"`
	Stock       int        `gorm:"column:stock;not null;default:0"`
	MinStock    int        `gorm:"column:stock_minimo;not null;default:0"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	Category    *Category  `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// State derives the display state from the active flag and stock counter.
func (p *Product) State() enums.ProductState {
	if !p.IsActive {
		return enums.ProductStateInactive
	}
	if p.Stock <= 0 {
		return enums.ProductStateOutOfStock
	}
	return enums.ProductStateActive
}
