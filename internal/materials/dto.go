package materials

import (
	"time"

	"github.com/google/uuid"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
)

// CreateMaterialInput holds the validated payload to register a raw material.
type CreateMaterialInput struct {
	Name     string
	Unit     string
	Stock    int
	MinStock int
	Supplier *string
}

// UpdateMaterialInput holds optional mutation values. Stock only moves
// through recorded movements.
type UpdateMaterialInput struct {
	Name     *string
	Unit     *string
	MinStock *int
	Supplier *string
}

// RecordMovementInput describes one stock movement. Qty is always positive
// for ENTRADA and SALIDA; AJUSTE carries a signed correction delta.
type RecordMovementInput struct {
	MaterialID uuid.UUID
	Type       enums.MovementType
	Qty        int
	Notes      *string
	ActorID    *uuid.UUID
}

// MaterialDTO is the read model for raw materials.
type MaterialDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"stock_minimo"`
	Supplier  *string   `json:"supplier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaterialList is one cursor page of materials.
type MaterialList struct {
	Materials  []MaterialDTO `json:"materials"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// MovementDTO is the read model for one stock movement entry.
type MovementDTO struct {
	ID         uuid.UUID          `json:"id"`
	MaterialID uuid.UUID          `json:"material_id"`
	Type       enums.MovementType `json:"tipo"`
	Qty        int                `json:"qty"`
	NewStock   int                `json:"new_stock,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
	ActorID    *uuid.UUID         `json:"actor_id,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func toMaterialDTO(material *models.Material) *MaterialDTO {
	return &MaterialDTO{
		ID:        material.ID,
		Name:      material.Name,
		Unit:      material.Unit,
		Stock:     material.Stock,
		MinStock:  material.MinStock,
		Supplier:  material.Supplier,
		CreatedAt: material.CreatedAt,
		UpdatedAt: material.UpdatedAt,
	}
}

func toMovementDTO(movement *models.StockMovement) MovementDTO {
	return MovementDTO{
		ID:         movement.ID,
		MaterialID: movement.MaterialID,
		Type:       movement.Type,
		Qty:        movement.Qty,
		Notes:      movement.Notes,
		ActorID:    movement.ActorID,
		CreatedAt:  movement.CreatedAt,
	}
}
