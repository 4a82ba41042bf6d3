package inventory

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

type CreateItemRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Unit     string `json:"unit" validate:"required"`
}

type CreatePurchaseRequest struct {
	ItemID            uuid.UUID       `json:"item_id" validate:"required"`
	PurchaseDate      time.Time       `json:"purchase_date" validate:"required"`
	PurchasedQuantity decimal.Decimal `json:"purchased_quantity"`
	WastedQuantity    decimal.Decimal `json:"wasted_quantity"`
	UsefulQuantity    decimal.Decimal `json:"useful_quantity"`
	BuyingPrice       decimal.Decimal `json:"buying_price"`
	Supplier          string          `json:"supplier" validate:"required"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterItemReadRoutes mounts the open inventory-item reads.
func (h *Handler) RegisterItemReadRoutes(r chi.Router) {
	r.Get("/", h.handleListItems)
	r.Get("/{id}", h.handleGetItem)
	r.Get("/{id}/stock", h.handleGetItemStock)
}

// RegisterItemWriteRoutes mounts the manager/admin item mutations.
func (h *Handler) RegisterItemWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreateItem)
	r.Put("/{id}", h.handleUpdateItem)
	r.Delete("/{id}", h.handleDeleteItem)
}

// RegisterPurchaseRoutes mounts the purchase endpoints; the whole group is
// manager/admin per the role matrix.
func (h *Handler) RegisterPurchaseRoutes(r chi.Router) {
	r.Post("/", h.handleCreatePurchase)
	r.Get("/", h.handleListPurchases)
	r.Get("/{id}", h.handleGetPurchase)
	r.Get("/item/{itemId}", h.handleListPurchasesByItem)
	r.Put("/{id}", h.handleUpdatePurchase)
	r.Delete("/{id}", h.handleDeletePurchase)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrPurchaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidQuantities):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var payload CreateItemRequest

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

	item := Item{
		Name:     payload.Name,
		Brand:    payload.Brand,
		Category: payload.Category,
		Unit:     payload.Unit,
	}

	created, err := h.service.CreateItem(r.Context(), &item)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create inventory item via service")
		httputil.RespondWithError(w, mapErrorToStatusCode(err), "Failed to create inventory item")
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list inventory items via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list inventory items")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	item, err := h.service.GetItemByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get inventory item via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get inventory item")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, item)
}

func (h *Handler) handleGetItemStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	stock, err := h.service.GetItemStock(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get item stock via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get item stock")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stock)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload CreateItemRequest

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

	item := Item{
		ID:       id,
		Name:     payload.Name,
		Brand:    payload.Brand,
		Category: payload.Category,
		Unit:     payload.Unit,
	}

	if err := h.service.UpdateItem(r.Context(), &item); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
			return
		}
		log.Error().Err(err).Msg("Failed to update inventory item via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to update inventory item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete inventory item via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to delete inventory item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var payload CreatePurchaseRequest

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

	purchase := Purchase{
		ItemID:            payload.ItemID,
		PurchaseDate:      payload.PurchaseDate,
		PurchasedQuantity: payload.PurchasedQuantity,
		WastedQuantity:    payload.WastedQuantity,
		UsefulQuantity:    payload.UsefulQuantity,
		BuyingPrice:       payload.BuyingPrice,
		Supplier:          payload.Supplier,
	}

	created, err := h.service.CreatePurchase(r.Context(), &purchase)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantities):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrItemNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
		default:
			log.Error().Err(err).Msg("Failed to create purchase via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create purchase")
		}
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Purchase recorded successfully",
		"purchase_id": created.ID,
	})
}

func (h *Handler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list purchases via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list purchases")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, purchases)
}

func (h *Handler) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.GetPurchaseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Purchase not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get purchase via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get purchase")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPurchasesByItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "itemId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid item id parameter")
		return
	}

	purchases, err := h.service.ListPurchasesByItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
			return
		}
		log.Error().Err(err).Msg("Failed to list purchases by item via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list purchases")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, purchases)
}

func (h *Handler) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload CreatePurchaseRequest

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

	purchase := Purchase{
		ID:                id,
		ItemID:            payload.ItemID,
		PurchaseDate:      payload.PurchaseDate,
		PurchasedQuantity: payload.PurchasedQuantity,
		WastedQuantity:    payload.WastedQuantity,
		UsefulQuantity:    payload.UsefulQuantity,
		BuyingPrice:       payload.BuyingPrice,
		Supplier:          payload.Supplier,
	}

	if err := h.service.UpdatePurchase(r.Context(), &purchase); err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantities):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPurchaseNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Purchase not found")
		default:
			log.Error().Err(err).Msg("Failed to update purchase via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to update purchase")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeletePurchase(r.Context(), id); err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Purchase not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete purchase via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to delete purchase")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
