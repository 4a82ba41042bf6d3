package production

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"restomanage/internal/httputil"
)

type CreateReleaseRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Units     int       `json:"units" validate:"required,min=1"`
	Notes     string    `json:"notes"`
}

type CreateLogRequest struct {
	ProductID          uuid.UUID `json:"product_id" validate:"required"`
	InventoryReleaseID uuid.UUID `json:"inventory_release_id" validate:"required"`
	PlannedQuantity    int       `json:"planned_quantity" validate:"required,min=1"`
	ActualQuantity     int       `json:"actual_quantity" validate:"required,min=1"`
	Notes              string    `json:"notes"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterReleaseReadRoutes mounts the open inventory-release reads.
func (h *Handler) RegisterReleaseReadRoutes(r chi.Router) {
	r.Get("/", h.handleListReleases)
	r.Get("/{id}", h.handleGetRelease)
	r.Get("/product/{productId}", h.handleListReleasesByProduct)
}

// RegisterReleaseWriteRoutes mounts the manager/admin release mutations.
func (h *Handler) RegisterReleaseWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreateRelease)
}

// RegisterLogReadRoutes mounts the open production-log reads.
func (h *Handler) RegisterLogReadRoutes(r chi.Router) {
	r.Get("/", h.handleListLogs)
	r.Get("/{id}", h.handleGetLog)
	r.Get("/product/{productId}", h.handleListLogsByProduct)
	r.Get("/release/{releaseId}", h.handleListLogsByRelease)
	r.Get("/stock/{productId}", h.handleGetProductStock)
}

// RegisterLogWriteRoutes mounts the manager/admin log mutations.
func (h *Handler) RegisterLogWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreateLog)
}

func (h *Handler) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	var payload CreateReleaseRequest

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

	release, err := h.service.CreateRelease(r.Context(), payload.ProductID, payload.Units, payload.Notes)
	if err != nil {
		var shortageErr *InsufficientInventoryError
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, ErrNoRecipe):
			httputil.RespondWithError(w, http.StatusUnprocessableEntity, "Product has no recipe configured")
		case errors.As(err, &shortageErr):
			httputil.RespondWithJSON(w, http.StatusConflict, map[string]interface{}{
				"error":     "Insufficient inventory",
				"shortages": shortageErr.Shortages,
			})
		default:
			log.Error().Err(err).Msg("Failed to create inventory release via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create inventory release")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, release)
}

func (h *Handler) handleListReleases(w http.ResponseWriter, r *http.Request) {
	releases, err := h.service.ListReleases(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list inventory releases via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list inventory releases")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, releases)
}

func (h *Handler) handleGetRelease(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	release, err := h.service.GetReleaseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrReleaseNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory release not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get inventory release via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get inventory release")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, release)
}

func (h *Handler) handleListReleasesByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	releases, err := h.service.ListReleasesByProduct(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list inventory releases via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list inventory releases")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, releases)
}

func (h *Handler) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var payload CreateLogRequest

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

	l := Log{
		ProductID:          payload.ProductID,
		InventoryReleaseID: payload.InventoryReleaseID,
		PlannedQuantity:    payload.PlannedQuantity,
		ActualQuantity:     payload.ActualQuantity,
		Notes:              payload.Notes,
	}

	created, err := h.service.CreateLog(r.Context(), &l)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, ErrReleaseNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory release not found")
		default:
			log.Error().Err(err).Msg("Failed to create production log via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create production log")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.ListLogs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list production logs via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list production logs")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleGetLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	l, err := h.service.GetLogByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLogNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Production log not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get production log via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get production log")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, l)
}

func (h *Handler) handleListLogsByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	logs, err := h.service.ListLogsByProduct(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list production logs via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list production logs")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleListLogsByRelease(w http.ResponseWriter, r *http.Request) {
	releaseID, err := uuid.FromString(chi.URLParam(r, "releaseId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid releaseId parameter")
		return
	}

	logs, err := h.service.ListLogsByRelease(r.Context(), releaseID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list production logs via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list production logs")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleGetProductStock(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	stock, err := h.service.GetProductStock(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get product stock via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get product stock")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stock)
}
