package sale

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"restomanage/internal/auth"
	"restomanage/internal/httputil"
)

type LineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateSaleRequest struct {
	Items []LineRequest `json:"items" validate:"required,min=1,dive"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes mounts the POS endpoints; the caller gates them to
// cashier/manager/admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreateSale)
	r.Get("/", h.handleListSales)
	r.Get("/by-date", h.handleReportByDate)
	r.Get("/{id}", h.handleGetSale)
}

func (h *Handler) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload CreateSaleRequest

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

	lines := make([]LineInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	sl, err := h.service.CreateSale(r.Context(), claims.UserID, lines)
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.Is(err, ErrInvalidSale):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
		case errors.As(err, &stockErr):
			httputil.RespondWithJSON(w, http.StatusConflict, map[string]interface{}{
				"error":     "Insufficient finished stock",
				"shortages": stockErr.Shortages,
			})
		default:
			log.Error().Err(err).Msg("Failed to create sale via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create sale")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, sl)
}

func (h *Handler) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	sl, err := h.service.GetSaleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Sale not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get sale via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get sale")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, sl)
}

func (h *Handler) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sales via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list sales")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, sales)
}

func (h *Handler) handleReportByDate(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.service.ReportByDateRange(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		if errors.Is(err, ErrInvalidSale) {
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to build sales report via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to build sales report")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, report)
}
