package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// =====================
// UserRepository モック
// =====================

type userRepoMock struct {
	mock.Mock
}

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.UserRepository = (*userRepoMock)(nil)

// =====================
// helper
// =====================

const secret = "test-secret"

func mustMakeJWT(t *testing.T, key string, sub int64, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(sub, 10),
		"role": role,
		"tv":   tv,
		"iat":  1,
		"exp":  9999999999,
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r.Error
}

// ctxの中身をそのまま返す
func echoContextHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role, TokenVersion: tv})
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{name: "no header", header: func(t *testing.T) string { return "" }},
		{name: "bad scheme", header: func(t *testing.T) string { return "Token abc.def.ghi" }},
		{name: "empty token", header: func(t *testing.T) string { return "Bearer   " }},
		{name: "garbage", header: func(t *testing.T) string { return "Bearer not-a-jwt" }},
		{name: "bad signature", header: func(t *testing.T) string {
			return "Bearer " + mustMakeJWT(t, "wrong-secret", 1, "USER", 0, jwt.SigningMethodHS256)
		}},
		{name: "wrong alg", header: func(t *testing.T) string {
			return "Bearer " + mustMakeJWT(t, secret, 1, "USER", 0, jwt.SigningMethodHS512)
		}},
		{name: "missing role", header: func(t *testing.T) string {
			return "Bearer " + mustMakeJWT(t, secret, 1, "", 0, jwt.SigningMethodHS256)
		}},
		{name: "zero sub", header: func(t *testing.T) string {
			return "Bearer " + mustMakeJWT(t, secret, 0, "USER", 0, jwt.SigningMethodHS256)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", echoContextHandler, middleware.AuthJWT(config.Config{JWTSecret: secret}))

			rec := runRequest(t, e, tt.header(t))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec))
		})
	}
}

// 正常：ctxに値が入る
func TestAuthJWT_Success_SetsContext(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoContextHandler, middleware.AuthJWT(config.Config{JWTSecret: secret}))

	rec := runRequest(t, e, "bearer "+mustMakeJWT(t, secret, 123, "USER", 7, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, mwOKResponse{UserID: 123, Role: "USER", TokenVersion: 7}, body)
}

// =====================
// TokenVersionGuard / RequireUser
// =====================

// AuthJWT無しでGuardだけ => 401
func TestTokenVersionGuard_MissingContext(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoContextHandler, middleware.TokenVersionGuard(new(userRepoMock)))

	rec := runRequest(t, e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name     string
		dbUser   *model.User
		dbErr    error
		wantCode int
	}{
		{name: "tv match", dbUser: &model.User{ID: 1, TokenVersion: 5, IsActive: true}, wantCode: http.StatusOK},
		// 強制ログアウト後
		{name: "tv mismatch", dbUser: &model.User{ID: 1, TokenVersion: 6, IsActive: true}, wantCode: http.StatusUnauthorized},
		// 停止されたユーザー
		{name: "inactive", dbUser: &model.User{ID: 1, TokenVersion: 5}, wantCode: http.StatusUnauthorized},
		{name: "user deleted", dbErr: repository.ErrUserNotFound, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(userRepoMock)
			userRepo.On("FindByID", mock.Anything, int64(1)).Return(tt.dbUser, tt.dbErr)

			e := echo.New()
			e.GET("/protected", echoContextHandler, middleware.RequireUser(config.Config{JWTSecret: secret}, userRepo))

			rec := runRequest(t, e, "Bearer "+mustMakeJWT(t, secret, 1, "USER", 5, jwt.SigningMethodHS256))
			assert.Equal(t, tt.wantCode, rec.Code)
			userRepo.AssertExpectations(t)
		})
	}
}

// JWTが不正ならDBまで行かない
func TestRequireUser_BadTokenSkipsDB(t *testing.T) {
	userRepo := new(userRepoMock)

	e := echo.New()
	e.GET("/protected", echoContextHandler, middleware.RequireUser(config.Config{JWTSecret: secret}, userRepo))

	rec := runRequest(t, e, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		wantCode int
		wantErr  string
	}{
		{name: "admin", role: "ADMIN", wantCode: http.StatusOK},
		{name: "user", role: "USER", wantCode: http.StatusForbidden, wantErr: "admin only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", echoContextHandler,
				middleware.AuthJWT(config.Config{JWTSecret: secret}),
				middleware.AdminRoleGuard(),
			)

			rec := runRequest(t, e, "Bearer "+mustMakeJWT(t, secret, 9, tt.role, 0, jwt.SigningMethodHS256))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec))
			}
		})
	}
}

// roleが無い => 401
func TestAdminRoleGuard_NoRole(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoContextHandler, middleware.AdminRoleGuard())

	rec := runRequest(t, e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
