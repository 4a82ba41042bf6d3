package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"restomanage/internal/httputil"
)

type CreateIntentRequest struct {
	OrderID uuid.UUID        `json:"order_id" validate:"required"`
	Amount  *decimal.Decimal `json:"amount"`
	Method  string           `json:"method" validate:"omitempty,oneof=card cash"`
}

type CreateIntentResponse struct {
	PaymentID    uuid.UUID       `json:"payment_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes mounts the authenticated payment endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-payment-intent", h.handleCreatePaymentIntent)
	r.Post("/{id}/confirm", h.handleConfirmPayment)
	r.Get("/{id}", h.handleGetPayment)
}

// RegisterReportRoutes mounts the admin/manager payment report.
func (h *Handler) RegisterReportRoutes(r chi.Router) {
	r.Get("/by-date", h.handleListPaymentsByDate)
}

func (h *Handler) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var payload CreateIntentRequest

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

	p, clientSecret, err := h.service.CreatePaymentIntent(r.Context(), payload.OrderID, payload.Amount, payload.Method)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, ErrOrderStateConflict):
			httputil.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrAmountMismatch):
			httputil.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to create payment intent via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create payment intent")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, CreateIntentResponse{
		PaymentID:    p.ID,
		ClientSecret: clientSecret,
		Amount:       p.Amount,
		Status:       p.Status,
	})
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.ConfirmPayment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Payment not found")
		case errors.Is(err, ErrAlreadyConfirmed):
			httputil.RespondWithError(w, http.StatusConflict, "Payment already confirmed")
		case errors.Is(err, ErrOrderStateConflict):
			httputil.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to confirm payment via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to confirm payment")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.GetPaymentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get payment via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get payment")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPaymentsByDate(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid from parameter, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid to parameter, expected YYYY-MM-DD")
		return
	}

	payments, err := h.service.ListPaymentsByDateRange(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list payments by date via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, payments)
}
