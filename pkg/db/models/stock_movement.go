package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/enums"
)

// StockMovement is the append-only history of raw-material adjustments.
type StockMovement struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	MaterialID uuid.UUID          `gorm:"column:material_id;type:uuid;not null;index"`
	Type       enums.MovementType `gorm:"column:tipo;not null"`
	Qty        int                `gorm:"column:qty;not null"`
	Notes      *string            `gorm:"column:notes"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (s *StockMovement) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
