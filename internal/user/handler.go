package user

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

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager cashier customer"`
}

type UpdateUserRequest struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin manager cashier customer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes mounts the user management endpoints. Role gating is applied
// by the caller (transport) so the matrix lives in one place.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreateUser)
	r.Get("/", h.handleListUsers)
	r.Get("/{id}", h.handleGetUserByID)
	r.Put("/{id}", h.handleUpdateUser)
	r.Delete("/{id}", h.handleDeleteUser)
}

// RegisterAuthRoutes mounts the public login endpoint and the
// authenticated self-lookup.
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Get("/me", h.handleGetMe)
}

func toResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserRequest

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

	domainUser := User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: payload.Password,
		Role:         payload.Role,
	}

	created, err := h.service.CreateUser(r.Context(), &domainUser)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user via service")
		if errors.Is(err, ErrEmailExists) {
			httputil.RespondWithError(w, http.StatusConflict, "Email already exists")
			return
		}
		httputil.RespondWithError(w, mapErrorToStatusCode(err), "Failed to create user")
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, u, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("Failed to log user in via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, User: toResponse(u)})
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	u, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		httputil.RespondWithError(w, mapErrorToStatusCode(err), "Failed to get user")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toResponse(&users[i]))
	}

	httputil.RespondWithJSON(w, http.StatusOK, responses)
}

func (h *Handler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	u, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get user by id via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateUserRequest

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

	domainUser := User{
		ID:    userID,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  payload.Role,
	}
	if payload.Password != nil {
		domainUser.PasswordHash = *payload.Password
	}

	if err := h.service.UpdateUser(r.Context(), &domainUser); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, ErrEmailExists):
			httputil.RespondWithError(w, http.StatusConflict, "Email already exists")
		default:
			log.Error().Err(err).Msg("Failed to update user via service")
			httputil.RespondWithError(w, mapErrorToStatusCode(err), "Failed to update user")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete user via service")
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
