package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description *string
	CategoryID  *uuid.UUID
	PriceCents  int
	Stock       int
	MinStock    int
}

// UpdateProductInput holds optional mutation values. Stock is intentionally
// absent; stock only moves through the adjustment primitive.
type UpdateProductInput struct {
	SKU         *string
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
	PriceCents  *int
	MinStock    *int
	IsActive    *bool
}

// ListFilters narrows the product listing.
type ListFilters struct {
	CategoryID *uuid.UUID
	Active     *bool
	Query      string
}

// ProductDTO is the read model for catalog responses.
type ProductDTO struct {
	ID          uuid.UUID          `json:"id"`
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	CategoryID  *uuid.UUID         `json:"category_id,omitempty"`
	PriceCents  int                `json:"price_cents"`
	Stock       int                `json:"stock"`
	MinStock    int                `json:"stock_minimo"`
	State       enums.ProductState `json:"state"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ProductList is one cursor page of products.
type ProductList struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CategoryDTO is the read model for product categories.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func toProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		CategoryID:  product.CategoryID,
		PriceCents:  product.PriceCents,
		Stock:       product.Stock,
		MinStock:    product.MinStock,
		State:       product.State(),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:   category.ID,
		Name: category.Name,
	}
}
