package accesscontrol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

type roleCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StaffRoleKey(userID string) string
}

// Authority resolves staff roles and answers capability checks. It is the
// single place role-to-permission decisions are made; middleware calls it
// once per request at the service boundary.
type Authority interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (enums.StaffRole, error)
	Require(ctx context.Context, userID uuid.UUID, capability Capability) error
	InvalidateRole(ctx context.Context, userID uuid.UUID) error
}

type authority struct {
	db    *gorm.DB
	cache roleCache
	ttl   time.Duration
}

// NewAuthority builds the capability authority. The cache is optional; with
// a nil cache every resolution hits the database.
func NewAuthority(db *gorm.DB, cache roleCache, ttl time.Duration) (Authority, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &authority{db: db, cache: cache, ttl: ttl}, nil
}

// ResolveRole returns the staff role for userID, serving from the TTL-bounded
// cache when possible. Stale entries age out; role changes call
// InvalidateRole to drop them early.
func (a *authority) ResolveRole(ctx context.Context, userID uuid.UUID) (enums.StaffRole, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity")
	}

	if a.cache != nil {
		cached, err := a.cache.Get(ctx, a.cache.StaffRoleKey(userID.String()))
		if err == nil {
			if role := enums.StaffRole(cached); role.IsValid() {
				return role, nil
			}
		}
		// Misses and cache errors both fall through to the database read.
	}

	var user models.StaffUser
	err := a.db.WithContext(ctx).
		Select("id", "role", "is_active").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown staff account")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff role")
	}
	if !user.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "staff account disabled")
	}

	if a.cache != nil {
		_ = a.cache.Set(ctx, a.cache.StaffRoleKey(userID.String()), user.Role.String(), a.ttl)
	}
	return user.Role, nil
}

// Require rejects with CodeForbidden when the user's role lacks capability.
func (a *authority) Require(ctx context.Context, userID uuid.UUID, capability Capability) error {
	role, err := a.ResolveRole(ctx, userID)
	if err != nil {
		return err
	}
	if !RoleHas(role, capability) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "missing capability").
			WithDetails(map[string]any{
				"capability": string(capability),
				"role":       role.String(),
			})
	}
	return nil
}

// InvalidateRole drops the cached role entry for userID.
func (a *authority) InvalidateRole(ctx context.Context, userID uuid.UUID) error {
	if a.cache == nil || userID == uuid.Nil {
		return nil
	}
	return a.cache.Del(ctx, a.cache.StaffRoleKey(userID.String()))
}
