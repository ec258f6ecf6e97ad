package materials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/pagination"
)

// Repository defines persistence operations for raw materials and their
// movement history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, material *models.Material) (*models.Material, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Material, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*MaterialList, error)
	ListLowStock(ctx context.Context) ([]MaterialDTO, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, bool, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) (*models.StockMovement, error)
	ListMovements(ctx context.Context, materialID uuid.UUID, params pagination.Params) ([]MovementDTO, string, error)
	CountMovements(ctx context.Context, materialID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a materials repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, material *models.Material) (*models.Material, error) {
	if err := r.db.WithContext(ctx).Create(material).Error; err != nil {
		return nil, err
	}
	return material, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&material).Error
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Material{}).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*MaterialList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Material{})
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	qb = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var records []models.Material
	if err := qb.Find(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]MaterialDTO, 0, len(resultRows))
	for i := range resultRows {
		dtos = append(dtos, *toMaterialDTO(&resultRows[i]))
	}
	return &MaterialList{
		Materials:  dtos,
		NextCursor: nextCursor,
	}, nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]MaterialDTO, error) {
	var records []models.Material
	err := r.db.WithContext(ctx).
		Where("stock <= stock_minimo").
		Order("stock ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	dtos := make([]MaterialDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *toMaterialDTO(&records[i]))
	}
	return dtos, nil
}

// AdjustStock applies delta through a conditional UPDATE so the counter can
// never be driven negative. The bool result reports whether the guard passed.
func (r *repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE materials
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock + ? >= 0
	`, delta, id, delta)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	material, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	return material.Stock, true, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) (*models.StockMovement, error) {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *repository) ListMovements(ctx context.Context, materialID uuid.UUID, params pagination.Params) ([]MovementDTO, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("material_id = ?", materialID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	qb = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var records []models.StockMovement
	if err := qb.Find(&records).Error; err != nil {
		return nil, "", err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]MovementDTO, 0, len(resultRows))
	for i := range resultRows {
		dtos = append(dtos, toMovementDTO(&resultRows[i]))
	}
	return dtos, nextCursor, nil
}

func (r *repository) CountMovements(ctx context.Context, materialID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}
