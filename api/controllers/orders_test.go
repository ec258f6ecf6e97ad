package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/confetex/taller-backend/internal/orders"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/pagination"
)

type stubOrderService struct {
	placeInput  *ordersvc.PlaceOrderInput
	placeResult *ordersvc.OrderDetail
	placeErr    error

	cancelID     uuid.UUID
	cancelResult *ordersvc.CancelResult
	cancelErr    error
}

func (s *stubOrderService) PlaceOrder(_ context.Context, input ordersvc.PlaceOrderInput) (*ordersvc.OrderDetail, error) {
	s.placeInput = &input
	return s.placeResult, s.placeErr
}

func (s *stubOrderService) CancelOrder(_ context.Context, orderID uuid.UUID) (*ordersvc.CancelResult, error) {
	s.cancelID = orderID
	return s.cancelResult, s.cancelErr
}

func (s *stubOrderService) GetOrder(context.Context, uuid.UUID) (*ordersvc.OrderDetail, error) {
	panic("unimplemented")
}

func (s *stubOrderService) ListOrders(context.Context, pagination.Params, ordersvc.ListFilters) (*ordersvc.OrderList, error) {
	panic("unimplemented")
}

func requestWithOrderID(method, target string, orderID string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPlaceOrderController(t *testing.T) {
	productID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubOrderService{
			placeResult: &ordersvc.OrderDetail{
				ID:         uuid.New(),
				Status:     enums.OrderStatusPending,
				TotalCents: 2320,
			},
		}
		body := `{"items":[{"product_id":"` + productID.String() + `","qty":2}],"payment_method":"efectivo"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PlaceOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.placeInput == nil || len(stub.placeInput.Items) != 1 {
			t.Fatalf("expected one item forwarded to the service")
		}
		if stub.placeInput.Items[0].ProductID != productID || stub.placeInput.Items[0].Qty != 2 {
			t.Fatalf("unexpected item forwarded: %+v", stub.placeInput.Items[0])
		}
		if stub.placeInput.PaymentMethod == nil || *stub.placeInput.PaymentMethod != enums.PaymentMethodCash {
			t.Fatalf("expected payment method efectivo")
		}

		var payload struct {
			Data struct {
				TotalCents int `json:"total_cents"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.TotalCents != 2320 {
			t.Fatalf("expected total 2320 got %d", payload.Data.TotalCents)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		stub := &stubOrderService{}
		body := `{"items":[{"product_id":"` + productID.String() + `","qty":1,"unit_price_cents":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PlaceOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
		if stub.placeInput != nil {
			t.Fatalf("service should not be reached with a price in the payload")
		}
	})

	t.Run("invalid payment method", func(t *testing.T) {
		stub := &stubOrderService{}
		body := `{"items":[{"product_id":"` + productID.String() + `","qty":1}],"payment_method":"trueque"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PlaceOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("insufficient stock maps to conflict", func(t *testing.T) {
		stub := &stubOrderService{
			placeErr: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock"),
		}
		body := `{"items":[{"product_id":"` + productID.String() + `","qty":50}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PlaceOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse error response: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeInsufficientStock) {
			t.Fatalf("expected code %s got %s", pkgerrors.CodeInsufficientStock, payload.Error.Code)
		}
	})
}

func TestCancelOrderController(t *testing.T) {
	orderID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubOrderService{
			cancelResult: &ordersvc.CancelResult{
				OrderID:       orderID,
				Status:        enums.OrderStatusCanceled,
				RestoredItems: 2,
				Warnings:      []string{"line item x: product deleted, stock not restored"},
			},
		}
		req := requestWithOrderID(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", orderID.String(), "")
		rec := httptest.NewRecorder()
		CancelOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.cancelID != orderID {
			t.Fatalf("expected order id forwarded")
		}
		var payload struct {
			Data struct {
				RestoredItems int      `json:"restored_items"`
				Warnings      []string `json:"warnings"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.RestoredItems != 2 || len(payload.Data.Warnings) != 1 {
			t.Fatalf("unexpected cancel payload: %+v", payload.Data)
		}
	})

	t.Run("invalid order id", func(t *testing.T) {
		req := requestWithOrderID(http.MethodPost, "/api/v1/orders/nope/cancel", "nope", "")
		rec := httptest.NewRecorder()
		CancelOrder(&stubOrderService{}, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("already cancelled", func(t *testing.T) {
		stub := &stubOrderService{
			cancelErr: pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled"),
		}
		req := requestWithOrderID(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", orderID.String(), "")
		rec := httptest.NewRecorder()
		CancelOrder(stub, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
