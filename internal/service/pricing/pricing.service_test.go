package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minimarket/order-service/internal/config"
	"github.com/minimarket/order-service/internal/entity"
)

func newTestOrder(quantity int) *entity.Order {
	return &entity.Order{
		AccountID: "acc-1",
		Symbol:    "AAPL",
		Side:      entity.OrderSideBuy,
		Quantity:  quantity,
	}
}

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("unexpected symbol %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":"210.5555555"}`))
	}))
	defer srv.Close()

	svc := NewPricingService(config.PricingConfig{BaseURL: srv.URL})

	price, err := svc.GetPrice(context.Background(), newTestOrder(10))
	if err != nil {
		t.Fatal(err)
	}
	if price.String() != "210.5555555" {
		t.Fatalf("expected raw provider price; got %s", price.String())
	}
}

func TestGetPriceIllegalQuantity(t *testing.T) {
	svc := NewPricingService(config.PricingConfig{BaseURL: "http://localhost:0"})

	for _, quantity := range []int{0, -1} {
		_, err := svc.GetPrice(context.Background(), newTestOrder(quantity))
		if !errors.Is(err, ErrIllegalQuantity) {
			t.Fatalf("quantity %d: expected ErrIllegalQuantity; got %v", quantity, err)
		}
	}
}

func TestGetPriceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewPricingService(config.PricingConfig{BaseURL: srv.URL})

	_, err := svc.GetPrice(context.Background(), newTestOrder(1))
	if err == nil {
		t.Fatal("expected error on provider failure")
	}
	if errors.Is(err, ErrIllegalQuantity) {
		t.Fatal("provider failure must not be reported as illegal quantity")
	}
}

func TestGetPriceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	svc := NewPricingService(config.PricingConfig{BaseURL: srv.URL})

	_, err := svc.GetPrice(context.Background(), newTestOrder(1))
	if err == nil {
		t.Fatal("expected error on malformed body")
	}
}
