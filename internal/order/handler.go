package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"restomanage/internal/auth"
	"restomanage/internal/httputil"
)

type LineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type ShippingAddressRequest struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type CreateOrderRequest struct {
	OrderType       string                 `json:"order_type" validate:"required,oneof=DIRECT_SALE PRODUCTION_ORDER"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address" validate:"required"`
	Items           []LineRequest          `json:"items" validate:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateOrderResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	ExpiresAt   *time.Time      `json:"reserve_expires_at,omitempty"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes mounts the authenticated order endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreateOrder)
	r.Get("/by-date", h.handleListOrdersByDate)
	r.Get("/{id}", h.handleGetOrder)
	r.Put("/{id}", h.handleUpdateOrderStatus)
	r.Delete("/{id}", h.handleCancelOrder)
}

// RegisterAdminRoutes mounts the admin/manager order listing.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.handleListOrders)
}

// RegisterProcessRoute mounts the manager/admin fulfillment endpoint.
func (h *Handler) RegisterProcessRoute(r chi.Router) {
	r.Post("/{id}/process-production-order", h.handleProcessProductionOrder)
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var userID *uuid.UUID
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		id := claims.UserID
		userID = &id
	}

	lines := make([]LineInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	address := ShippingAddress{
		Line1:      payload.ShippingAddress.Line1,
		Line2:      payload.ShippingAddress.Line2,
		City:       payload.ShippingAddress.City,
		PostalCode: payload.ShippingAddress.PostalCode,
		Country:    payload.ShippingAddress.Country,
	}

	o, err := h.service.CreateOrder(r.Context(), userID, payload.OrderType, address, lines)
	if err != nil {
		var lineErr *LineConfigError
		var shortageErr *ShortageError
		switch {
		case errors.Is(err, ErrInvalidOrder):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &lineErr):
			httputil.RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": lineErr.Errors,
			})
		case errors.As(err, &shortageErr):
			httputil.RespondWithJSON(w, http.StatusConflict, map[string]interface{}{
				"error":     "Insufficient stock",
				"shortages": shortageErr.Shortages,
			})
		default:
			log.Error().Err(err).Msg("Failed to create order via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, CreateOrderResponse{
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		ExpiresAt:   o.ReserveExpiresAt,
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	if !requesterMayAccess(r.Context(), o) {
		httputil.RespondWithError(w, http.StatusForbidden, "Order belongs to another user")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, o)
}

// requesterMayAccess allows staff through; customers only reach their own
// orders.
func requesterMayAccess(ctx context.Context, o *Order) bool {
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return false
	}
	if claims.Role != auth.RoleCustomer {
		return true
	}
	return o.UserID != nil && *o.UserID == claims.UserID
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleListOrdersByDate(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.service.ListOrdersByDateRange(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidOrder) {
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to list orders by date via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, orders)
}

// parseDateRange reads from/to as YYYY-MM-DD dates; to is inclusive.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("from and to query parameters are required")
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from parameter, expected YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to parameter, expected YYYY-MM-DD")
	}

	return from, to.AddDate(0, 0, 1), nil
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateStatusRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), id, payload.Status); err != nil {
		h.respondStatusChangeError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Order status updated",
		"status":  payload.Status,
	})
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	if !requesterMayAccess(r.Context(), o) {
		httputil.RespondWithError(w, http.StatusForbidden, "Order belongs to another user")
		return
	}

	if err := h.service.CancelOrder(r.Context(), id); err != nil {
		h.respondStatusChangeError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Order cancelled",
	})
}

func (h *Handler) handleProcessProductionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.ProcessProductionOrder(r.Context(), id); err != nil {
		h.respondStatusChangeError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Production order processed",
		"order_id": id,
		"status":   StatusCompleted,
	})
}

func (h *Handler) respondStatusChangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidOrder):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrStateViolation):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to change order state via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to change order state")
	}
}
