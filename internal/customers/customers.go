package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/pagination"
)

// CreateCustomerInput holds the payload to register a client.
type CreateCustomerInput struct {
	Name  string
	Email *string
	Phone *string
	TaxID *string
}

// UpdateCustomerInput holds optional mutation values.
type UpdateCustomerInput struct {
	Name  *string
	Email *string
	Phone *string
	TaxID *string
}

// CustomerDTO is the read model for directory responses.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	TaxID     *string   `json:"tax_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerList is one cursor page of customers.
type CustomerList struct {
	Customers  []CustomerDTO `json:"customers"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Repository defines persistence operations for the client directory.
type Repository interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, params pagination.Params, query string) (*CustomerList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Customer{}).Error
}

func (r *repository) CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *repository) List(ctx context.Context, params pagination.Params, query string) (*CustomerList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Customer{})
	if search := strings.TrimSpace(query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(name) LIKE ?", pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	qb = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var records []models.Customer
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

	dtos := make([]CustomerDTO, 0, len(resultRows))
	for i := range resultRows {
		dtos = append(dtos, toCustomerDTO(&resultRows[i]))
	}
	return &CustomerList{
		Customers:  dtos,
		NextCursor: nextCursor,
	}, nil
}

// Service exposes client directory operations.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	UpdateCustomer(ctx context.Context, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	DeleteCustomer(ctx context.Context, customerID uuid.UUID) error
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error)
	ListCustomers(ctx context.Context, params pagination.Params, query string) (*CustomerList, error)
}

type service struct {
	repo Repository
}

// NewService constructs the customers service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	customer := &models.Customer{
		Name:  name,
		Email: input.Email,
		Phone: input.Phone,
		TaxID: input.TaxID,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	dto := toCustomerDTO(created)
	return &dto, nil
}

func (s *service) UpdateCustomer(ctx context.Context, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	if _, err := s.loadCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.TaxID != nil {
		updates["tax_id"] = *input.TaxID
	}

	if err := s.repo.Update(ctx, customerID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return s.GetCustomer(ctx, customerID)
}

// DeleteCustomer removes a directory entry. Customers referenced by orders
// cannot be removed; the sale history keeps pointing at them.
func (s *service) DeleteCustomer(ctx context.Context, customerID uuid.UUID) error {
	if _, err := s.loadCustomer(ctx, customerID); err != nil {
		return err
	}

	references, err := s.repo.CountOrderReferences(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order references")
	}
	if references > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "customer has orders").
			WithDetails(map[string]any{"customer_id": customerID.String()})
	}
	if err := s.repo.Delete(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}

func (s *service) GetCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	dto := toCustomerDTO(customer)
	return &dto, nil
}

func (s *service) ListCustomers(ctx context.Context, params pagination.Params, query string) (*CustomerList, error) {
	list, err := s.repo.List(ctx, params, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return list, nil
}

func (s *service) loadCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found").
				WithDetails(map[string]any{"customer_id": customerID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func toCustomerDTO(customer *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		TaxID:     customer.TaxID,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}
