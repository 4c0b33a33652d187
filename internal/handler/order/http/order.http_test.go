package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/minimarket/order-service/internal/entity"
	orderservice "github.com/minimarket/order-service/internal/service/order"
	"github.com/minimarket/order-service/internal/service/pricing"
	"github.com/shopspring/decimal"
)

type fakeOrderService struct {
	quote    *entity.PriceQuote
	placeErr error

	order  *entity.Order
	getErr error

	orders  []entity.Order
	listErr error
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, order *entity.Order) (*entity.PriceQuote, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.quote, nil
}

func (f *fakeOrderService) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.order, nil
}

func (f *fakeOrderService) GetOrdersByAccountID(ctx context.Context, accountID string) ([]entity.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.orders, nil
}

func newTestMux(svc *fakeOrderService) *http.ServeMux {
	mux := http.NewServeMux()
	NewOrderHTTPHandler(svc).Register(mux)
	return mux
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestPlaceOrderOK(t *testing.T) {
	svc := &fakeOrderService{
		quote: &entity.PriceQuote{Symbol: "AAPL", Price: decimal.RequireFromString("210.555556")},
	}
	mux := newTestMux(svc)

	body := []byte(`{"account_id":"acc-1","symbol":"AAPL","side":"buy","quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200; got %d body=%s", w.Code, w.Body.String())
	}

	// The price must go out as a JSON number, not a quoted string.
	raw := w.Body.String()
	if !strings.Contains(raw, `"price":210.555556`) {
		t.Fatalf("expected unquoted numeric price with 6 fractional digits; got %s", raw)
	}

	var resp PriceResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Symbol != "AAPL" {
		t.Fatalf("unexpected symbol %q", resp.Symbol)
	}
	if string(resp.Price) != "210.555556" {
		t.Fatalf("expected price with 6 fractional digits; got %s", resp.Price)
	}
}

func TestPlaceOrderInvalidJSON(t *testing.T) {
	mux := newTestMux(&fakeOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{bad json"))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json; got %d", w.Code)
	}
}

func TestPlaceOrderErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rate limit exceeded", fmt.Errorf("%w for account: acc-1", orderservice.ErrRateLimitExceeded), http.StatusNotAcceptable},
		{"illegal quantity", fmt.Errorf("%w: -5", pricing.ErrIllegalQuantity), http.StatusNotAcceptable},
		{"missing account id", entity.ErrAccountIDRequired, http.StatusBadRequest},
		{"missing symbol", entity.ErrSymbolRequired, http.StatusBadRequest},
		{"unknown status", entity.ErrInvalidOrderStatus, http.StatusBadRequest},
		{"unclassified failure", errors.New("price lookup failed: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestMux(&fakeOrderService{placeErr: tc.err})

			body := []byte(`{"account_id":"acc-1","symbol":"AAPL","side":"BUY","quantity":1}`)
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d; got %d", tc.wantStatus, w.Code)
			}

			resp := decodeErrorResponse(t, w)
			if resp.Status != tc.wantStatus {
				t.Fatalf("envelope status %d should match %d", resp.Status, tc.wantStatus)
			}
			if resp.Error != http.StatusText(tc.wantStatus) {
				t.Fatalf("unexpected envelope error %q", resp.Error)
			}
			if resp.Message == "" {
				t.Fatal("envelope message should carry the underlying error")
			}
			if resp.Timestamp == "" {
				t.Fatal("envelope should carry a timestamp")
			}
		})
	}
}

func TestGetOrderByID(t *testing.T) {
	stored := &entity.Order{
		ID:        7,
		AccountID: "acc-1",
		Symbol:    "AAPL",
		Side:      entity.OrderSideBuy,
		Quantity:  1,
		Status:    entity.OrderStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	mux := newTestMux(&fakeOrderService{order: stored})

	req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200; got %d", w.Code)
	}

	var resp entity.Order
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != 7 || resp.AccountID != "acc-1" {
		t.Fatalf("unexpected order %+v", resp)
	}
}

func TestGetOrderByIDNotFound(t *testing.T) {
	mux := newTestMux(&fakeOrderService{
		getErr: fmt.Errorf("%w with id: %d", orderservice.ErrOrderNotFound, 404),
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/404", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404; got %d", w.Code)
	}

	resp := decodeErrorResponse(t, w)
	if resp.Error != "Not Found" {
		t.Fatalf("unexpected envelope error %q", resp.Error)
	}
}

func TestGetOrderByIDInvalid(t *testing.T) {
	mux := newTestMux(&fakeOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-number", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id; got %d", w.Code)
	}
}

func TestGetOrdersForAccount(t *testing.T) {
	mux := newTestMux(&fakeOrderService{orders: []entity.Order{}})

	req := httptest.NewRequest(http.MethodGet, "/orders?accountId=acc-1", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty account; got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("expected empty array; got %s", got)
	}
}

func TestGetOrdersMissingAccountID(t *testing.T) {
	mux := newTestMux(&fakeOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without accountId; got %d", w.Code)
	}
}

func TestOrdersMethodNotAllowed(t *testing.T) {
	mux := newTestMux(&fakeOrderService{})

	req := httptest.NewRequest(http.MethodDelete, "/orders", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405; got %d", w.Code)
	}
}
