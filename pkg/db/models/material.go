package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Material is a raw-material inventory entry (fabric, thread, buttons).
type Material struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Unit      string    `gorm:"column:unit;not null"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	MinStock  int       `gorm:"column:stock_minimo;not null;default:0"`
	Supplier  *string   `gorm:"column:supplier"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (m *Material) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
