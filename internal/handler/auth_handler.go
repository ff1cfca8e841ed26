package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
)

const (
	refreshCookieName = "refresh"
	csrfCookieName    = "csrf_token"
	csrfHeaderName    = "X-CSRF-Token"
)

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	refreshTTL   time.Duration // refresh/csrf cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// register/loginは回数制限をかける
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, requireUser echo.MiddlewareFunc, limit echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", h.Register, limit)
	g.POST("/login", h.Login, limit)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, requireUser)
}

// POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// User-Agentをrefreshtokenに紐付ける
	res, err := h.uc.Login(c.Request().Context(), req, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)
	return c.JSON(http.StatusOK, res.Body)
}

// POST /auth/refresh（cookieのrefresh + ヘッダのCSRF）
func (h *AuthHandler) Refresh(c echo.Context) error {
	if !csrfOK(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "csrf token mismatch"})
	}
	ck, err := c.Cookie(refreshCookieName)
	if err != nil || ck.Value == "" {
		return unauthorized(c)
	}

	res, err := h.uc.Refresh(c.Request().Context(), ck.Value, c.Request().UserAgent())
	if err != nil {
		h.clearCookies(c)
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)
	return c.JSON(http.StatusOK, res.Body)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if !csrfOK(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "csrf token mismatch"})
	}
	ck, err := c.Cookie(refreshCookieName)
	if err != nil || ck.Value == "" {
		return unauthorized(c)
	}

	if err := h.uc.Logout(c.Request().Context(), ck.Value); err != nil {
		return writeError(c, err)
	}
	h.clearCookies(c)
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logout success"})
}

// GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// double submit（cookieとヘッダが一致するか）
func csrfOK(c echo.Context) bool {
	ck, err := c.Cookie(csrfCookieName)
	if err != nil || ck.Value == "" {
		return false
	}
	header := c.Request().Header.Get(csrfHeaderName)
	return subtle.ConstantTimeCompare([]byte(ck.Value), []byte(header)) == 1
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

// csrftokenをCookieにセット（JSから読む）
func (h *AuthHandler) setCsrfCookie(c echo.Context, csrfToken string) {
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearCookies(c echo.Context) {
	for _, ck := range []struct{ name, path string }{{refreshCookieName, "/auth"}, {csrfCookieName, "/"}} {
		c.SetCookie(&http.Cookie{
			Name:     ck.name,
			Value:    "",
			Path:     ck.path,
			MaxAge:   -1,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
