package user_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"restomanage/internal/auth"
	"restomanage/internal/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(userID uuid.UUID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func TestUserService_CreateUser_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	testUser := &user.User{
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "somepassword",
		Role:         auth.RoleManager,
	}
	expectedID := uuid.Must(uuid.NewV4())

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(expectedID, nil).
		Once()

	created, err := svc.CreateUser(context.Background(), testUser)

	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, expectedID, created.ID)

	err = bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("somepassword"))
	require.NoError(t, err, "stored hash must match the raw password")
	require.NotEqual(t, "somepassword", created.PasswordHash)

	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_InvalidRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	_, err := svc.CreateUser(context.Background(), &user.User{
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "somepassword",
		Role:         "superuser",
	})

	require.ErrorIs(t, err, user.ErrInvalidRole)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestUserService_CreateUser_EmailExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(uuid.Nil, user.ErrEmailExists).
		Once()

	created, err := svc.CreateUser(context.Background(), &user.User{
		Name:         "Test User",
		Email:        "duplicate@example.com",
		PasswordHash: "somepassword",
		Role:         auth.RoleCustomer,
	})

	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Nil(t, created)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Login_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenIssuer)
	svc := user.NewService(mockRepo, mockTokens)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	userID := uuid.Must(uuid.NewV4())
	stored := &user.User{
		ID:           userID,
		Email:        "login@example.com",
		PasswordHash: string(hash),
		Role:         auth.RoleCashier,
	}

	mockRepo.On("GetByEmail", mock.Anything, "login@example.com").Return(stored, nil).Once()
	mockTokens.On("Issue", userID, auth.RoleCashier).Return("signed-token", nil).Once()

	token, u, err := svc.Login(context.Background(), "login@example.com", "correct-password")

	require.NoError(t, err)
	require.Equal(t, "signed-token", token)
	require.Equal(t, userID, u.ID)
	mockRepo.AssertExpectations(t)
	mockTokens.AssertExpectations(t)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenIssuer)
	svc := user.NewService(mockRepo, mockTokens)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	mockRepo.On("GetByEmail", mock.Anything, "login@example.com").
		Return(&user.User{PasswordHash: string(hash)}, nil).
		Once()

	_, _, err = svc.Login(context.Background(), "login@example.com", "wrong-password")

	require.ErrorIs(t, err, user.ErrInvalidCredentials)
	mockTokens.AssertNotCalled(t, "Issue")
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	mockRepo.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, user.ErrNotFound).
		Once()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")

	require.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestUserService_UpdateUser_KeepsStoredHash(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	userID := uuid.Must(uuid.NewV4())
	stored := &user.User{
		ID:           userID,
		PasswordHash: "stored-hash",
		Role:         auth.RoleManager,
	}

	mockRepo.On("GetByID", mock.Anything, userID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.PasswordHash == "stored-hash" && u.Role == auth.RoleManager
	})).Return(nil).Once()

	err := svc.UpdateUser(context.Background(), &user.User{
		ID:    userID,
		Name:  "Renamed",
		Email: "renamed@example.com",
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := user.NewService(mockRepo, new(MockTokenIssuer))

	userID := uuid.Must(uuid.NewV4())
	mockRepo.On("Delete", mock.Anything, userID).Return(user.ErrNotFound).Once()

	err := svc.DeleteUser(context.Background(), userID)

	require.ErrorIs(t, err, user.ErrNotFound)
}
