package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/repository"
)

// AuthJWTの後ろに置く。force-logoutでDBのtoken_versionが進んでいたら401
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, idOK := c.Get(CtxUserIDKey).(int64)
			tv, tvOK := c.Get(CtxTokenVersionKey).(int)
			if !idOK || !tvOK || userID <= 0 || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil || !user.IsActive || user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

func RequireUser(cfg config.Config, userRepo repository.UserRepository) echo.MiddlewareFunc {
	return chain(AuthJWT(cfg), TokenVersionGuard(userRepo))
}

// 先頭が一番外側
func chain(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
