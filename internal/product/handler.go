package product

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"restomanage/internal/httputil"
)

type ProductRequest struct {
	Name                string          `json:"name" validate:"required,min=2"`
	Description         string          `json:"description"`
	SellingPrice        decimal.Decimal `json:"selling_price"`
	MinProductionAmount int             `json:"min_production_amount" validate:"min=0"`
}

type RecipeLineRequest struct {
	ItemID          uuid.UUID       `json:"item_id" validate:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

type SetRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterReadRoutes mounts the open product reads, including stock.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleListProducts)
	r.Get("/{id}", h.handleGetProduct)
	r.Get("/{id}/recipe", h.handleGetRecipe)
	r.Get("/{id}/stock", h.handleGetStock)
}

// RegisterWriteRoutes mounts the manager/admin product mutations.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreateProduct)
	r.Put("/{id}", h.handleUpdateProduct)
	r.Delete("/{id}", h.handleDeleteProduct)
	r.Put("/{id}/recipe", h.handleSetRecipe)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductRequest

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

	p := Product{
		Name:                payload.Name,
		Description:         payload.Description,
		SellingPrice:        payload.SellingPrice,
		MinProductionAmount: payload.MinProductionAmount,
	}

	created, err := h.service.CreateProduct(r.Context(), &p)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get product via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload ProductRequest

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

	p := Product{
		ID:                  id,
		Name:                payload.Name,
		Description:         payload.Description,
		SellingPrice:        payload.SellingPrice,
		MinProductionAmount: payload.MinProductionAmount,
	}

	if err := h.service.UpdateProduct(r.Context(), &p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to update product via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete product via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetRecipe(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload SetRecipeRequest

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

	lines := make([]RecipeLine, 0, len(payload.Lines))
	for _, l := range payload.Lines {
		lines = append(lines, RecipeLine{ItemID: l.ItemID, QuantityPerUnit: l.QuantityPerUnit})
	}

	if err := h.service.SetRecipe(r.Context(), productID, lines); err != nil {
		switch {
		case errors.Is(err, ErrInvalidRecipe):
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, ErrItemNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Inventory item not found")
		default:
			log.Error().Err(err).Msg("Failed to set recipe via service")
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to set recipe")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	lines, err := h.service.GetRecipe(r.Context(), productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get recipe via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get recipe")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, lines)
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	stock, err := h.service.GetStock(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get product stock via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get product stock")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stock)
}
