package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"restomanage/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
)

var validRoles = map[string]bool{
	auth.RoleAdmin:    true,
	auth.RoleManager:  true,
	auth.RoleCashier:  true,
	auth.RoleCustomer: true,
}

// TokenIssuer is the part of auth.TokenManager the service needs.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role string) (string, error)
}

type Service interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) CreateUser(ctx context.Context, u *User) (*User, error) {
	if u.PasswordHash == "" {
		return nil, errors.New("service: password cannot be empty")
	}
	if !validRoles[u.Role] {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	createdID, err := s.repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	u.ID = createdID
	log.Info().Stringer("user_id", u.ID).Str("role", u.Role).Msg("service: user created")

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to fetch user for login")
		return "", nil, fmt.Errorf("service: failed to fetch user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue token")
		return "", nil, fmt.Errorf("service: failed to issue token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user logged in")
	return token, u, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}

	return u, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}

	return users, nil
}

func (s *service) UpdateUser(ctx context.Context, u *User) error {
	if u.Role != "" && !validRoles[u.Role] {
		return ErrInvalidRole
	}

	if u.PasswordHash != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("service: failed to hash password")
			return fmt.Errorf("service: failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	} else {
		// Keep the stored hash when the caller did not send a new password.
		current, err := s.repo.GetByID(ctx, u.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("service: failed to load user for update: %w", err)
		}
		u.PasswordHash = current.PasswordHash
		if u.Role == "" {
			u.Role = current.Role
		}
	}

	err := s.repo.Update(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrNotFound) {
			return err
		}
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to update user")
		return fmt.Errorf("service: failed to update user '%s': %w", u.ID, err)
	}

	return nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to delete user")
		return fmt.Errorf("service: failed to delete user '%s': %w", id, err)
	}

	return nil
}
