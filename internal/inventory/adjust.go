package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

// Adjuster is the single choke point through which order placement and
// cancellation mutate product stock.
type Adjuster interface {
	AdjustStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) (int, error)
}

type adjuster struct{}

// NewAdjuster returns the default conditional-update implementation.
func NewAdjuster() Adjuster {
	return adjuster{}
}

// AdjustStock applies delta to the product's stock counter as one conditional
// UPDATE, so two concurrent callers can never interleave a stale
// read-then-write. A negative delta that would drive stock below zero leaves
// the row untouched and returns CodeInsufficientStock. The post-adjustment
// stock is read back inside the same transaction.
func (adjuster) AdjustStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if delta == 0 {
		return currentStock(ctx, tx, productID)
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock + ? >= 0
	`, delta, productID, delta)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}

	if res.RowsAffected == 0 {
		// Either the product is gone or the guard rejected the decrement.
		stock, err := currentStock(ctx, tx, productID)
		if err != nil {
			return 0, err
		}
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"stock":      stock,
				"requested":  -delta,
			})
	}

	return currentStock(ctx, tx, productID)
}

func currentStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	var product models.Product
	err := tx.WithContext(ctx).Select("id", "stock").First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	return product.Stock, nil
}
