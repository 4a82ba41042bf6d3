package feedback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"restomanage/internal/auth"
	"restomanage/internal/httputil"
)

type CreateFeedbackRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

type UpdateFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterReadRoutes mounts the open feedback reads.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/product/{productId}", h.handleListByProduct)
	r.Get("/{id}", h.handleGetFeedback)
}

// RegisterWriteRoutes mounts the authenticated feedback mutations. Update and
// delete additionally require ownership, enforced in the service.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreateFeedback)
	r.Put("/{id}", h.handleUpdateFeedback)
	r.Delete("/{id}", h.handleDeleteFeedback)
}

func (h *Handler) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload CreateFeedbackRequest

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

	f := Feedback{
		UserID:    claims.UserID,
		ProductID: payload.ProductID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
	}

	created, err := h.service.CreateFeedback(r.Context(), &f)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, ErrUserNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "User not found")
		default:
			log.Error().Err(err).Msg("Failed to create feedback via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create feedback")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	f, err := h.service.GetFeedbackByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Feedback not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get feedback via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get feedback")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, f)
}

func (h *Handler) handleListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	feedbacks, err := h.service.ListFeedbackByProduct(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list feedback via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list feedback")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, feedbacks)
}

func (h *Handler) handleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateFeedbackRequest

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

	f, err := h.service.UpdateFeedback(r.Context(), claims.UserID, id, payload.Rating, payload.Comment)
	if err != nil {
		h.respondOwnershipError(w, err, "Failed to update feedback")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, f)
}

func (h *Handler) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteFeedback(r.Context(), claims.UserID, id); err != nil {
		h.respondOwnershipError(w, err, "Failed to delete feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondOwnershipError(w http.ResponseWriter, err error, genericMsg string) {
	switch {
	case errors.Is(err, ErrInvalidRating):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFeedbackNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Feedback not found")
	case errors.Is(err, ErrNotOwner):
		httputil.RespondWithError(w, http.StatusForbidden, "Feedback belongs to another user")
	default:
		log.Error().Err(err).Msg(genericMsg)
		httputil.RespondWithError(w, http.StatusInternalServerError, genericMsg)
	}
}
