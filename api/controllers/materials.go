package controllers

import (
	"net/http"
	"strings"

	"github.com/confetex/taller-backend/api/middleware"
	"github.com/confetex/taller-backend/api/responses"
	"github.com/confetex/taller-backend/api/validators"
	materialsvc "github.com/confetex/taller-backend/internal/materials"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/logger"
	"github.com/confetex/taller-backend/pkg/pagination"
	"github.com/google/uuid"
)

type createMaterialRequest struct {
	Name     string  `json:"name" validate:"required"`
	Unit     string  `json:"unit" validate:"required"`
	Stock    int     `json:"stock" validate:"min=0"`
	MinStock int     `json:"stock_minimo" validate:"min=0"`
	Supplier *string `json:"supplier,omitempty"`
}

type updateMaterialRequest struct {
	Name     *string `json:"name,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	MinStock *int    `json:"stock_minimo,omitempty"`
	Supplier *string `json:"supplier,omitempty"`
}

type recordMovementRequest struct {
	Type  string  `json:"tipo" validate:"required"`
	Qty   int     `json:"qty" validate:"required"`
	Notes *string `json:"notes,omitempty"`
}

// CreateMaterial registers a raw material.
func CreateMaterial(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		var payload createMaterialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.CreateMaterial(r.Context(), materialsvc.CreateMaterialInput{
			Name:     payload.Name,
			Unit:     payload.Unit,
			Stock:    payload.Stock,
			MinStock: payload.MinStock,
			Supplier: payload.Supplier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, material)
	}
}

// UpdateMaterial applies partial edits. Stock only moves through movements.
func UpdateMaterial(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMaterialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.UpdateMaterial(r.Context(), materialID, materialsvc.UpdateMaterialInput{
			Name:     payload.Name,
			Unit:     payload.Unit,
			MinStock: payload.MinStock,
			Supplier: payload.Supplier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

// DeleteMaterial removes a material that has no movement history.
func DeleteMaterial(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMaterial(r.Context(), materialID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetMaterial returns a single raw material.
func GetMaterial(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.GetMaterial(r.Context(), materialID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

// ListMaterials returns a cursor page of raw materials.
func ListMaterials(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListMaterials(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ListLowStockMaterials returns materials at or below their minimum.
func ListLowStockMaterials(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materials, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, materials)
	}
}

// RecordMovement registers an ENTRADA, SALIDA, or AJUSTE and moves the
// material's stock under the same guard orders use.
func RecordMovement(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseMovementType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		var actorID *uuid.UUID
		if userID := middleware.UserIDFromContext(r.Context()); userID != uuid.Nil {
			actorID = &userID
		}

		movement, err := svc.RecordMovement(r.Context(), materialsvc.RecordMovementInput{
			MaterialID: materialID,
			Type:       movementType,
			Qty:        payload.Qty,
			Notes:      payload.Notes,
			ActorID:    actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// ListMovements returns a cursor page of a material's movement history.
func ListMovements(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(r, "materialID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		movements, nextCursor, err := svc.ListMovements(r.Context(), materialID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"movements":   movements,
			"next_cursor": nextCursor,
		})
	}
}
