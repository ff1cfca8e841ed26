package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

// カテゴリ・バナー・送料設定
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type BannerRequest struct {
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle"`
	Image     string          `json:"image"`
	MediaType model.MediaType `json:"media_type"`
	Order     int             `json:"order"`
}

func (r BannerRequest) toInput() usecase.BannerInput {
	return usecase.BannerInput{
		Title:     r.Title,
		Subtitle:  r.Subtitle,
		Image:     r.Image,
		MediaType: r.MediaType,
		Order:     r.Order,
	}
}

type ShippingSettingsRequest struct {
	Rate                  int64  `json:"rate"`
	FreeShippingThreshold *int64 `json:"free_shipping_threshold"`
	IsFreeShippingEnabled bool   `json:"is_free_shipping_enabled"`
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo, admin *echo.Group) {
	e.GET("/categories", h.listCategories)
	e.GET("/banners", h.listBanners)
	e.GET("/settings/shipping", h.getShipping)

	admin.POST("/categories", h.createCategory)
	admin.PUT("/categories/:id", h.updateCategory)
	admin.DELETE("/categories/:id", h.deleteCategory)

	admin.POST("/banners", h.createBanner)
	admin.PUT("/banners/:id", h.updateBanner)
	admin.DELETE("/banners/:id", h.deleteBanner)

	admin.PUT("/settings/shipping", h.updateShipping)
}

func (h *CatalogHandler) listCategories(c echo.Context) error {
	list, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.CreateCategory(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CatalogHandler) updateCategory(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := h.uc.UpdateCategory(c.Request().Context(), id, req.Name, req.Description); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *CatalogHandler) deleteCategory(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.uc.DeleteCategory(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *CatalogHandler) listBanners(c echo.Context) error {
	list, err := h.uc.ListBanners(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) createBanner(c echo.Context) error {
	var req BannerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.CreateBanner(c.Request().Context(), req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CatalogHandler) updateBanner(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req BannerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := h.uc.UpdateBanner(c.Request().Context(), id, req.toInput()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *CatalogHandler) deleteBanner(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.uc.DeleteBanner(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// 未設定でも既定値を返す
func (h *CatalogHandler) getShipping(c echo.Context) error {
	out, err := h.uc.GetShippingSettings(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) updateShipping(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var req ShippingSettingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateShippingSettings(c.Request().Context(), adminID, usecase.ShippingSettingsInput{
		Rate:                  req.Rate,
		FreeShippingThreshold: req.FreeShippingThreshold,
		IsFreeShippingEnabled: req.IsFreeShippingEnabled,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
