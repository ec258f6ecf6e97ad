package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/auth"
	"github.com/confetex/taller-backend/pkg/config"
	"github.com/confetex/taller-backend/pkg/db"
	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/security"
)

type roleInvalidator interface {
	InvalidateRole(ctx context.Context, userID uuid.UUID) error
}

// StaffDTO is the read model for staff accounts. The password hash never
// leaves this package.
type StaffDTO struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Role      enums.StaffRole `json:"role"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// LoginResult carries the minted token and the authenticated account.
type LoginResult struct {
	Token string   `json:"token"`
	User  StaffDTO `json:"user"`
}

// CreateStaffInput holds the payload to register a back-office account.
type CreateStaffInput struct {
	Email    string
	Password string
	FullName string
	Role     enums.StaffRole
}

// Service exposes staff authentication and account management.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CreateStaff(ctx context.Context, input CreateStaffInput) (*StaffDTO, error)
	UpdateStaffRole(ctx context.Context, userID uuid.UUID, role enums.StaffRole) (*StaffDTO, error)
	DeactivateStaff(ctx context.Context, userID uuid.UUID) error
	ListStaff(ctx context.Context) ([]StaffDTO, error)
}

type service struct {
	db          *gorm.DB
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	invalidator roleInvalidator
	now         func() time.Time
}

// NewService constructs the staff service. The invalidator is optional.
func NewService(dbHandle *gorm.DB, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, invalidator roleInvalidator) (Service, error) {
	if dbHandle == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		db:          dbHandle,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		invalidator: invalidator,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	var user models.StaffUser
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff account")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now().UTC(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &LoginResult{
		Token: token,
		User:  toStaffDTO(&user),
	}, nil
}

func (s *service) CreateStaff(ctx context.Context, input CreateStaffInput) (*StaffDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.StaffUser{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff account")
	}

	dto := toStaffDTO(user)
	return &dto, nil
}

func (s *service) UpdateStaffRole(ctx context.Context, userID uuid.UUID, role enums.StaffRole) (*StaffDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	user, err := s.loadStaff(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(user).
		Updates(map[string]any{
			"role":       role,
			"updated_at": s.now().UTC(),
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff role")
	}
	if s.invalidator != nil {
		_ = s.invalidator.InvalidateRole(ctx, userID)
	}

	user.Role = role
	dto := toStaffDTO(user)
	return &dto, nil
}

func (s *service) DeactivateStaff(ctx context.Context, userID uuid.UUID) error {
	user, err := s.loadStaff(ctx, userID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).
		Model(user).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": s.now().UTC(),
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate staff account")
	}
	if s.invalidator != nil {
		_ = s.invalidator.InvalidateRole(ctx, userID)
	}
	return nil
}

func (s *service) ListStaff(ctx context.Context) ([]StaffDTO, error) {
	var users []models.StaffUser
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff accounts")
	}

	dtos := make([]StaffDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toStaffDTO(&users[i]))
	}
	return dtos, nil
}

func (s *service) loadStaff(ctx context.Context, userID uuid.UUID) (*models.StaffUser, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	var user models.StaffUser
	err := s.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff account")
	}
	return &user, nil
}

func toStaffDTO(user *models.StaffUser) StaffDTO {
	return StaffDTO{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}
