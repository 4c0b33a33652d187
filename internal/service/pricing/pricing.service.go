package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/minimarket/order-service/internal/config"
	"github.com/minimarket/order-service/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 15 * time.Second

var ErrIllegalQuantity = errors.New("wrong quantity value (should be positive)")

// PricingService fetches the current price for a symbol from the external
// pricing provider. One synchronous round trip, no retry, no cache.
type PricingService struct {
	baseURL    string
	httpClient *http.Client
}

func NewPricingService(cfg config.PricingConfig) *PricingService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &PricingService{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPrice validates the order quantity and looks up the price for its
// symbol. The quantity check lives here so it runs after the workflow has
// already consumed a rate-limit permit.
func (s *PricingService) GetPrice(ctx context.Context, order *entity.Order) (decimal.Decimal, error) {
	if order.Quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrIllegalQuantity, order.Quantity)
	}

	endpoint := s.baseURL + "/price?symbol=" + url.QueryEscape(order.Symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		logrus.WithFields(logrus.Fields{
			"symbol": order.Symbol,
			"status": resp.StatusCode,
		}).Warn("price lookup rejected")

		return decimal.Zero, fmt.Errorf("price lookup rejected: status=%d body=%s", resp.StatusCode, string(body))
	}

	var quote entity.PriceQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("price lookup parse failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return quote.Price, nil
}
