package validator

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 8
	// bcryptは72バイトより後ろを無視する
	maxPasswordLen = 72
)

type authValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

func badRequest(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

func credentials(email, password string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "" || password == "":
		return badRequest("email and password required")
	case !emailPattern.MatchString(email):
		return badRequest("invalid email")
	}
	return nil
}

func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	if err := credentials(email, password); err != nil {
		return err
	}
	if n := len(password); n < minPasswordLen {
		return badRequest("password must be at least 8 characters")
	} else if n > maxPasswordLen {
		return badRequest("password must be at most 72 bytes")
	}

	_, err := v.users.FindByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		return usecase.NewHTTPError(http.StatusConflict, "email already used")
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

// ログインでは長さを見ない（登録済みパスワードの規則が変わっても入れるように）
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	return credentials(email, password)
}

func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}
	return nil
}

func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return badRequest("invalid user id")
	}
	return nil
}
