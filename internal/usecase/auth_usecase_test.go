package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	args := m.Called(ctx, refreshToken, userAgent)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	args := m.Called(ctx, targetUserID)
	return args.Error(0)
}

// =====================
// Helper
// =====================

const testJWTSecret = "test-secret"

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}

func newAuthUC(userRepo *UserRepoMock, rtRepo *RefreshTokenRepoMock, v *MockAuthValidator) *usecase.AuthUsecase {
	// JWTSecret は Login/Refresh で必須
	cfg := config.Config{JWTSecret: testJWTSecret}
	return usecase.NewAuthUsecase(cfg, userRepo, rtRepo, v, zap.NewNop())
}

// =====================
// Register
// =====================

func TestAuthUsecase_Register_Success(t *testing.T) {
	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateRegister", mock.Anything, "ada@example.com", "password123").Return(nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		// 平文保存しない
		return u.Email == "ada@example.com" && u.PasswordHash != "password123" && u.Role == model.RoleUser
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 10
	}).Return(nil)

	res, err := newAuthUC(userRepo, rtRepo, v).Register(context.Background(), usecase.AuthRegisterRequest{
		Email:       "  Ada@Example.com ",
		Password:    "password123",
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.User.ID)
	assert.Equal(t, "Ada", res.User.DisplayName)

	userRepo.AssertExpectations(t)
	v.AssertExpectations(t)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	userRepo := new(UserRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateRegister", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := newAuthUC(userRepo, new(RefreshTokenRepoMock), v).Register(context.Background(), usecase.AuthRegisterRequest{
		Email: "ada@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, httpStatus(t, err))
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_Success(t *testing.T) {
	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	user := &model.User{
		ID:           1,
		Email:        "user@test.com",
		PasswordHash: mustHash(t, "password123"),
		Role:         model.RoleAdmin,
		TokenVersion: 3,
		IsActive:     true,
	}

	v.On("ValidateLogin", mock.Anything, user.Email, "password123").Return(nil)
	userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)
	rtRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserID == 1 && rt.UserAgent == "UA" && rt.TokenHash != "" && rt.ExpiresAt.After(time.Now())
	})).Return(nil)

	res, err := newAuthUC(userRepo, rtRepo, v).Login(context.Background(), usecase.AuthLoginRequest{
		Email: user.Email, Password: "password123",
	}, "UA")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.NotEmpty(t, res.CsrfTokenPlain)
	assert.Equal(t, 3, res.Body.Token.TokenVersion)
	assert.NotNil(t, user.LastLoginAt)

	// claimsはsub/role/tv
	claims, err := auth.Parse(testJWTSecret, res.Body.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)

	rtRepo.AssertExpectations(t)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	userRepo := new(UserRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	userRepo.On("FindByEmail", mock.Anything, "user@test.com").Return(&model.User{
		ID: 1, Email: "user@test.com", PasswordHash: mustHash(t, "correct-password"), IsActive: true,
	}, nil)

	res, err := newAuthUC(userRepo, new(RefreshTokenRepoMock), v).Login(context.Background(), usecase.AuthLoginRequest{
		Email: "user@test.com", Password: "wrong-password",
	}, "UA")
	assert.Nil(t, res)
	assertErrContains(t, err, "invalid email or password")
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	userRepo := new(UserRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	userRepo.On("FindByEmail", mock.Anything, "user@test.com").Return(&model.User{
		ID: 1, Email: "user@test.com", PasswordHash: mustHash(t, "password123"), IsActive: false,
	}, nil)

	_, err := newAuthUC(userRepo, new(RefreshTokenRepoMock), v).Login(context.Background(), usecase.AuthLoginRequest{
		Email: "user@test.com", Password: "password123",
	}, "UA")
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

// =====================
// Refresh
// =====================

func TestAuthUsecase_Refresh_Success(t *testing.T) {
	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateRefresh", mock.Anything, "refresh-plain", "UA").Return(nil)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID: "rt-old", UserID: 1, UserAgent: "UA", ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil)
	userRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Role: model.RoleUser, IsActive: true}, nil)
	rtRepo.On("MarkUsed", mock.Anything, "rt-old", mock.AnythingOfType("time.Time")).Return(nil)
	rtRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := newAuthUC(userRepo, rtRepo, v).Refresh(context.Background(), "refresh-plain", "UA")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Body.AccessToken)
	assert.Greater(t, res.Body.ExpiresIn, 0)
	assert.NotEqual(t, "refresh-plain", res.RefreshTokenPlain)

	rtRepo.AssertExpectations(t)
}

// 期限切れ => Revoke + 401
func TestAuthUsecase_Refresh_Expired(t *testing.T) {
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateRefresh", mock.Anything, "expired", "UA").Return(nil)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID: "rt-exp", UserID: 1, UserAgent: "UA", ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)
	rtRepo.On("Revoke", mock.Anything, "rt-exp", mock.AnythingOfType("time.Time")).Return(nil)

	res, err := newAuthUC(new(UserRepoMock), rtRepo, v).Refresh(context.Background(), "expired", "UA")
	assert.Nil(t, res)
	assertErrContains(t, err, "refresh token expired")
	rtRepo.AssertExpectations(t)
}

// 使用済みの再利用 => 全失効 + incident
func TestAuthUsecase_Refresh_Replay(t *testing.T) {
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)
	usedAt := time.Now().Add(-time.Minute)

	v.On("ValidateRefresh", mock.Anything, "used", "UA").Return(nil)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID: "rt-used", UserID: 1, UserAgent: "UA", ExpiresAt: time.Now().Add(10 * time.Minute), UsedAt: &usedAt,
	}, nil)
	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newAuthUC(new(UserRepoMock), rtRepo, v).Refresh(context.Background(), "used", "UA")
	assertErrContains(t, err, "security incident")
	rtRepo.AssertExpectations(t)
}

func TestAuthUsecase_Refresh_UserAgentMismatch(t *testing.T) {
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateRefresh", mock.Anything, "plain", "UA-2").Return(nil)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID: "rt", UserID: 1, UserAgent: "UA-1", ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil)
	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newAuthUC(new(UserRepoMock), rtRepo, v).Refresh(context.Background(), "plain", "UA-2")
	assertErrContains(t, err, "security incident")
	rtRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Logout / ForceLogout
// =====================

func TestAuthUsecase_Logout_Success(t *testing.T) {
	rtRepo := new(RefreshTokenRepoMock)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{ID: "rt"}, nil)
	rtRepo.On("Revoke", mock.Anything, "rt", mock.AnythingOfType("time.Time")).Return(nil)

	err := newAuthUC(new(UserRepoMock), rtRepo, new(MockAuthValidator)).Logout(context.Background(), "plain")
	assert.NoError(t, err)
	rtRepo.AssertExpectations(t)
}

func TestAuthUsecase_Logout_EmptyToken(t *testing.T) {
	err := newAuthUC(new(UserRepoMock), new(RefreshTokenRepoMock), new(MockAuthValidator)).Logout(context.Background(), "  ")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestAuthUsecase_ForceLogout_Success(t *testing.T) {
	userRepo := new(UserRepoMock)
	rtRepo := new(RefreshTokenRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateForceLogout", mock.Anything, int64(5)).Return(nil)
	userRepo.On("IncrementTokenVersion", mock.Anything, int64(5)).Return(nil)
	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(5)).Return(nil)
	userRepo.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, TokenVersion: 2}, nil)

	res, err := newAuthUC(userRepo, rtRepo, v).ForceLogout(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewTokenVersion)

	userRepo.AssertExpectations(t)
	rtRepo.AssertExpectations(t)
}

func TestAuthUsecase_ForceLogout_UnknownUser(t *testing.T) {
	userRepo := new(UserRepoMock)
	v := new(MockAuthValidator)

	v.On("ValidateForceLogout", mock.Anything, int64(5)).Return(nil)
	userRepo.On("IncrementTokenVersion", mock.Anything, int64(5)).Return(repository.ErrUserNotFound)

	_, err := newAuthUC(userRepo, new(RefreshTokenRepoMock), v).ForceLogout(context.Background(), 5)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}
