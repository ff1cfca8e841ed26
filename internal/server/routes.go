package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

// ルート登録に必要なハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	AdminUser    *handler.AdminUserHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Catalog      *handler.CatalogHandler
	Cart         *handler.CartHandler
	Coupon       *handler.CouponHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Notification *handler.NotificationHandler
	Address      *handler.AddressHandler
	Media        *handler.MediaHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, limiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	requireUser := middleware.RequireUser(cfg, userRepo)
	limit := limiter.Middleware()

	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", requireUser, middleware.AdminRoleGuard())

	h.Auth.RegisterRoutes(e, requireUser, limit)
	h.Product.RegisterRoutes(e, requireUser)
	h.Catalog.RegisterRoutes(e, admin)
	h.Cart.RegisterRoutes(e, requireUser, limit)
	h.Checkout.RegisterRoutes(e, requireUser)
	h.Order.RegisterRoutes(e, requireUser)
	h.Notification.RegisterRoutes(e, requireUser, admin)
	h.Address.RegisterRoutes(e, requireUser)
	h.Media.RegisterRoutes(e, requireUser, limit, admin)

	h.AdminUser.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.Coupon.RegisterRoutes(admin)
}
