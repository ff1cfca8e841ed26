package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// 設定が空のとき（テストなど）の有効期限
const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	validator AuthValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	validator AuthValidator,
	log *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(pwHash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	switch err := u.users.Create(ctx, user); {
	case errors.Is(err, repository.ErrDuplicate):
		// validatorの確認後に同じメールで先に登録された
		return nil, NewHTTPError(http.StatusConflict, "email already used")
	case err != nil:
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	//last_login更新
	now := u.now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.log.Warn("last login update failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	sess, err := u.issueSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Body:              AuthLoginResponse{User: toUserDTO(user), Token: sess.access},
		RefreshTokenPlain: sess.refresh,
		CsrfTokenPlain:    sess.csrf,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// refreshのローテーション。使用済みが来たらreplayとして全失効
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashOpaque(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := u.now()
	if rt.Expired(now) {
		_ = u.rtRepo.Revoke(ctx, rt.ID, now)
		return nil, NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}
	if rt.RevokedAt != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if rt.UsedAt != nil {
		u.securityIncident(ctx, rt.UserID, "refresh token replay")
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}
	// user_agent違い（再認証扱い）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		u.securityIncident(ctx, rt.UserID, "user agent mismatch")
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	//旧tokenをusedにする
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		u.securityIncident(ctx, rt.UserID, "mark used failed")
		return nil, NewHTTPError(http.StatusUnauthorized, "security incident")
	}

	sess, err := u.issueSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Body: sess.access, RefreshTokenPlain: sess.refresh, CsrfTokenPlain: sess.csrf}, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashOpaque(refreshTokenPlain))
	if err != nil || rt == nil {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.rtRepo.Revoke(ctx, rt.ID, u.now()); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// token_versionを上げて既存のaccess tokenを無効化
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	switch err := u.users.IncrementTokenVersion(ctx, targetUserID); {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, NewHTTPError(http.StatusNotFound, "user not found")
	case err != nil:
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

func (u *AuthUsecase) securityIncident(ctx context.Context, userID int64, reason string) {
	u.log.Warn("refresh token security incident", zap.Int64("user_id", userID), zap.String("reason", reason))
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		u.log.Error("revoke all refresh tokens failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

type session struct {
	access  JwtAccessTokenDTO
	refresh string
	csrf    string
}

func (u *AuthUsecase) ttls() (access, refresh time.Duration) {
	access, refresh = u.cfg.AccessTTL, u.cfg.RefreshTTL
	if access <= 0 {
		access = defaultAccessTTL
	}
	if refresh <= 0 {
		refresh = defaultRefreshTTL
	}
	return access, refresh
}

// refreshはhashだけ保存。csrfはcookieとヘッダの突き合わせ用で保存しない
func (u *AuthUsecase) issueSession(ctx context.Context, user *model.User, userAgent string) (session, error) {
	internal := NewHTTPError(http.StatusInternalServerError, "internal error")
	now := u.now()
	accessTTL, refreshTTL := u.ttls()

	signed, err := auth.Issue(u.cfg.JWTSecret, user, now, accessTTL)
	if err != nil {
		return session{}, internal
	}
	refreshPlain, refreshHash, err := auth.NewOpaque()
	if err != nil {
		return session{}, internal
	}
	csrfPlain, _, err := auth.NewOpaque()
	if err != nil {
		return session{}, internal
	}

	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTTL),
	}); err != nil {
		return session{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return session{
		access: JwtAccessTokenDTO{
			AccessToken:  signed,
			ExpiresIn:    int(accessTTL.Seconds()),
			TokenVersion: user.TokenVersion,
		},
		refresh: refreshPlain,
		csrf:    csrfPlain,
	}, nil
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
