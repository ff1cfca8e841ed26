package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type StartCheckoutRequest struct {
	ShippingDetails model.ShippingDetails `json:"shipping_details"`
	TermsAccepted   bool                  `json:"terms_accepted"`
	CouponCode      string                `json:"coupon_code"`
	AddressID       int64                 `json:"address_id"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, requireUser echo.MiddlewareFunc) {
	g := e.Group("/checkout", requireUser)

	g.POST("", h.start)
	g.GET("/:reference", h.get)
	g.POST("/:reference/confirm", h.confirm)
	g.POST("/:reference/cancel", h.cancel)
}

func (h *CheckoutHandler) start(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req StartCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Start(c.Request().Context(), userID, usecase.StartCheckoutInput{
		Shipping:      req.ShippingDetails,
		TermsAccepted: req.TermsAccepted,
		CouponCode:    req.CouponCode,
		AddressID:     req.AddressID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CheckoutHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Get(c.Request().Context(), userID, c.Param("reference"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 決済代行の成功コールバック後に呼ばれる
func (h *CheckoutHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ConfirmPayment(c.Request().Context(), userID, c.Param("reference"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.CancelPayment(c.Request().Context(), userID, c.Param("reference")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "payment cancelled"})
}
