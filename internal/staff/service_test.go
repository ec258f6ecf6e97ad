package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/confetex/taller-backend/pkg/auth"
	"github.com/confetex/taller-backend/pkg/config"
	"github.com/confetex/taller-backend/pkg/db/models"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "taller-test",
	ExpirationMinutes: 60,
}

// Low-cost argon parameters keep the hashing tests fast.
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type recordingInvalidator struct {
	invalidated []uuid.UUID
}

func (r *recordingInvalidator) InvalidateRole(_ context.Context, userID uuid.UUID) error {
	r.invalidated = append(r.invalidated, userID)
	return nil
}

func setupStaffTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:staff_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StaffUser{}))
	return db
}

func newStaffService(t *testing.T, db *gorm.DB, invalidator *recordingInvalidator) Service {
	t.Helper()

	var inv roleInvalidator
	if invalidator != nil {
		inv = invalidator
	}
	svc, err := NewService(db, testJWTConfig, testPasswordConfig, inv)
	require.NoError(t, err)
	return svc
}

func TestCreateStaffAndLogin(t *testing.T) {
	t.Parallel()

	db := setupStaffTestDB(t)
	svc := newStaffService(t, db, nil)
	ctx := context.Background()

	created, err := svc.CreateStaff(ctx, CreateStaffInput{
		Email:    "Ventas@Taller.MX",
		Password: "secreto-largo",
		FullName: "Laura Ventas",
		Role:     enums.StaffRoleSales,
	})
	require.NoError(t, err)
	assert.Equal(t, "ventas@taller.mx", created.Email)

	result, err := svc.Login(ctx, "ventas@taller.mx", "secreto-largo")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, created.ID, result.User.ID)

	claims, err := auth.ParseAccessToken(testJWTConfig, result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, enums.StaffRoleSales, claims.Role)
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()

	db := setupStaffTestDB(t)
	svc := newStaffService(t, db, nil)
	ctx := context.Background()

	created, err := svc.CreateStaff(ctx, CreateStaffInput{
		Email:    "admin@taller.mx",
		Password: "secreto-largo",
		FullName: "Admin",
		Role:     enums.StaffRoleAdmin,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "admin@taller.mx", "incorrecto")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err = svc.Login(ctx, "nadie@taller.mx", "secreto-largo")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	require.NoError(t, svc.DeactivateStaff(ctx, created.ID))
	_, err = svc.Login(ctx, "admin@taller.mx", "secreto-largo")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestCreateStaffDuplicateEmail(t *testing.T) {
	t.Parallel()

	db := setupStaffTestDB(t)
	svc := newStaffService(t, db, nil)
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, CreateStaffInput{
		Email:    "dup@taller.mx",
		Password: "secreto-largo",
		FullName: "Primero",
		Role:     enums.StaffRoleSales,
	})
	require.NoError(t, err)

	_, err = svc.CreateStaff(ctx, CreateStaffInput{
		Email:    "dup@taller.mx",
		Password: "otro-secreto",
		FullName: "Segundo",
		Role:     enums.StaffRoleSales,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUpdateStaffRoleInvalidatesCache(t *testing.T) {
	t.Parallel()

	db := setupStaffTestDB(t)
	invalidator := &recordingInvalidator{}
	svc := newStaffService(t, db, invalidator)
	ctx := context.Background()

	created, err := svc.CreateStaff(ctx, CreateStaffInput{
		Email:    "prod@taller.mx",
		Password: "secreto-largo",
		FullName: "Pedro Produccion",
		Role:     enums.StaffRoleProduction,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStaffRole(ctx, created.ID, enums.StaffRoleWarehouse)
	require.NoError(t, err)
	assert.Equal(t, enums.StaffRoleWarehouse, updated.Role)
	require.Len(t, invalidator.invalidated, 1)
	assert.Equal(t, created.ID, invalidator.invalidated[0])

	_, err = svc.UpdateStaffRole(ctx, created.ID, "gerente")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
