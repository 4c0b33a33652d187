package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/minimarket/order-service/internal/entity"
	orderservice "github.com/minimarket/order-service/internal/service/order"
	"github.com/minimarket/order-service/internal/service/pricing"
)

type PlaceOrderRequest struct {
	AccountID string     `json:"account_id"`
	Symbol    string     `json:"symbol"`
	Side      string     `json:"side"`
	Quantity  int        `json:"quantity"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type PriceResponse struct {
	Symbol string `json:"symbol"`
	// Raw so the price goes out as a JSON number with a fixed 6-digit scale.
	Price json.RawMessage `json:"price"`
}

type errorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

type orderService interface {
	PlaceOrder(ctx context.Context, order *entity.Order) (*entity.PriceQuote, error)
	GetOrderByID(ctx context.Context, id int64) (*entity.Order, error)
	GetOrdersByAccountID(ctx context.Context, accountID string) ([]entity.Order, error)
}

type Handler struct {
	orderService orderService
}

func NewOrderHTTPHandler(orderService orderService) *Handler {
	return &Handler{orderService: orderService}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/orders", h.Orders)
	mux.HandleFunc("/orders/", h.OrderByID)
}

// Orders serves POST /orders (placement) and GET /orders?accountId= (listing).
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.placeOrder(w, r)
	case http.MethodGet:
		h.ordersForAccount(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (h *Handler) OrderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/orders/")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	order, err := h.orderService.GetOrderByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid json body"))
		return
	}

	order := mapPlaceOrderRequest(&req)

	quote, err := h.orderService.PlaceOrder(r.Context(), order)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PriceResponse{
		Symbol: quote.Symbol,
		Price:  json.RawMessage(quote.Price.StringFixed(6)),
	})
}

func (h *Handler) ordersForAccount(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("accountId"))
	if accountID == "" {
		writeError(w, http.StatusBadRequest, errors.New("accountId is required"))
		return
	}

	orders, err := h.orderService.GetOrdersByAccountID(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func mapPlaceOrderRequest(req *PlaceOrderRequest) *entity.Order {
	order := &entity.Order{
		AccountID: strings.TrimSpace(req.AccountID),
		Symbol:    strings.TrimSpace(req.Symbol),
		Side:      entity.OrderSide(strings.ToUpper(strings.TrimSpace(req.Side))),
		Quantity:  req.Quantity,
		Status:    entity.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	}

	if req.CreatedAt != nil {
		order.CreatedAt = req.CreatedAt.UTC()
	}

	return order
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderservice.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, orderservice.ErrRateLimitExceeded),
		errors.Is(err, pricing.ErrIllegalQuantity):
		writeError(w, http.StatusNotAcceptable, err)
	case errors.Is(err, entity.ErrOrderRequired),
		errors.Is(err, entity.ErrAccountIDRequired),
		errors.Is(err, entity.ErrSymbolRequired),
		errors.Is(err, entity.ErrInvalidOrderSide),
		errors.Is(err, entity.ErrInvalidOrderStatus):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
