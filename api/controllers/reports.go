package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/confetex/taller-backend/api/responses"
	"github.com/confetex/taller-backend/api/validators"
	reportsvc "github.com/confetex/taller-backend/internal/reports"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/logger"
)

// SalesReport aggregates order totals for the requested period.
func SalesReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		period, err := parsePeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SalesSummary(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// TopProductsReport ranks products by quantity sold in the period.
func TopProductsReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		period, err := parsePeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.TopProducts(r.Context(), period, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// MaterialConsumptionReport sums SALIDA movements per material in the period.
func MaterialConsumptionReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		period, err := parsePeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.MaterialConsumption(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

func parsePeriod(r *http.Request) (reportsvc.Period, error) {
	var period reportsvc.Period

	from, err := parseTimeParam(r, "from")
	if err != nil {
		return period, err
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		return period, err
	}

	period.From = from
	period.To = to
	return period, nil
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates.
func parseTimeParam(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+key+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
}
