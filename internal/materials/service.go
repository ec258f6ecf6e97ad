package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db"
	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes raw-material inventory operations.
type Service interface {
	CreateMaterial(ctx context.Context, input CreateMaterialInput) (*MaterialDTO, error)
	UpdateMaterial(ctx context.Context, materialID uuid.UUID, input UpdateMaterialInput) (*MaterialDTO, error)
	DeleteMaterial(ctx context.Context, materialID uuid.UUID) error
	GetMaterial(ctx context.Context, materialID uuid.UUID) (*MaterialDTO, error)
	ListMaterials(ctx context.Context, params pagination.Params) (*MaterialList, error)
	ListLowStock(ctx context.Context) ([]MaterialDTO, error)
	RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementDTO, error)
	ListMovements(ctx context.Context, materialID uuid.UUID, params pagination.Params) ([]MovementDTO, string, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService constructs the materials service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateMaterial(ctx context.Context, input CreateMaterialInput) (*MaterialDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material name required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit required")
	}
	if input.Stock < 0 || input.MinStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock values cannot be negative")
	}

	material := &models.Material{
		Name:     strings.TrimSpace(input.Name),
		Unit:     strings.TrimSpace(input.Unit),
		Stock:    input.Stock,
		MinStock: input.MinStock,
		Supplier: input.Supplier,
	}
	created, err := s.repo.Create(ctx, material)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "material already exists").
				WithDetails(map[string]any{"name": material.Name})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material")
	}
	return toMaterialDTO(created), nil
}

func (s *service) UpdateMaterial(ctx context.Context, materialID uuid.UUID, input UpdateMaterialInput) (*MaterialDTO, error) {
	if _, err := s.loadMaterial(ctx, materialID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "material name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cannot be empty")
		}
		updates["unit"] = unit
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_minimo cannot be negative")
		}
		updates["stock_minimo"] = *input.MinStock
	}
	if input.Supplier != nil {
		updates["supplier"] = *input.Supplier
	}

	if err := s.repo.Update(ctx, materialID, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "material already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material")
	}
	return s.GetMaterial(ctx, materialID)
}

// DeleteMaterial removes a material that has no movement history. Materials
// with recorded movements stay for auditability.
func (s *service) DeleteMaterial(ctx context.Context, materialID uuid.UUID) error {
	if _, err := s.loadMaterial(ctx, materialID); err != nil {
		return err
	}

	movements, err := s.repo.CountMovements(ctx, materialID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count movements")
	}
	if movements > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "material has movement history").
			WithDetails(map[string]any{"material_id": materialID.String()})
	}
	if err := s.repo.Delete(ctx, materialID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete material")
	}
	return nil
}

func (s *service) GetMaterial(ctx context.Context, materialID uuid.UUID) (*MaterialDTO, error) {
	material, err := s.loadMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return toMaterialDTO(material), nil
}

func (s *service) ListMaterials(ctx context.Context, params pagination.Params) (*MaterialList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}
	return list, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]MaterialDTO, error) {
	dtos, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return dtos, nil
}

// RecordMovement applies the stock delta and appends the history row in one
// transaction, so the counter and the movimientos log never diverge.
func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementDTO, error) {
	delta, err := movementDelta(input)
	if err != nil {
		return nil, err
	}

	var dto MovementDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, input.MaterialID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material not found").
					WithDetails(map[string]any{"material_id": input.MaterialID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}

		newStock, applied, err := repo.AdjustStock(ctx, input.MaterialID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust material stock")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient material stock").
				WithDetails(map[string]any{
					"material_id": input.MaterialID.String(),
					"requested":   -delta,
				})
		}

		movement := &models.StockMovement{
			MaterialID: input.MaterialID,
			Type:       input.Type,
			Qty:        input.Qty,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		}
		if _, err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record movement")
		}

		dto = toMovementDTO(movement)
		dto.NewStock = newStock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) ListMovements(ctx context.Context, materialID uuid.UUID, params pagination.Params) ([]MovementDTO, string, error) {
	if _, err := s.loadMaterial(ctx, materialID); err != nil {
		return nil, "", err
	}
	dtos, next, err := s.repo.ListMovements(ctx, materialID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return dtos, next, nil
}

func (s *service) loadMaterial(ctx context.Context, materialID uuid.UUID) (*models.Material, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	material, err := s.repo.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found").
				WithDetails(map[string]any{"material_id": materialID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}
	return material, nil
}

func movementDelta(input RecordMovementInput) (int, error) {
	if input.MaterialID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Type.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}

	switch input.Type {
	case enums.MovementTypeIn:
		if input.Qty <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		return input.Qty, nil
	case enums.MovementTypeOut:
		if input.Qty <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		return -input.Qty, nil
	default:
		if input.Qty == 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta cannot be zero")
		}
		return input.Qty, nil
	}
}
