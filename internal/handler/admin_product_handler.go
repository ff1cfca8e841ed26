package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

// 商品の作成・更新の入力
type ProductRequest struct {
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	Price            int64               `json:"price"`
	SlashPrice       *int64              `json:"slash_price"`
	Image            string              `json:"image"`
	Images           []string            `json:"images"`
	Category         string              `json:"category"`
	Colors           []string            `json:"colors"`
	Sizes            []string            `json:"sizes"`
	StockQuantity    int64               `json:"stock_quantity"`
	Status           model.ProductStatus `json:"status"`
	RestockDate      *time.Time          `json:"restock_date"`
	Featured         bool                `json:"featured"`
	Trending         bool                `json:"trending"`
	NewArrival       bool                `json:"new_arrival"`
	FlashSale        bool                `json:"flash_sale"`
	Visible          *bool               `json:"visible"`
}

func (r ProductRequest) toInput() usecase.ProductInput {
	//省略時は公開
	visible := true
	if r.Visible != nil {
		visible = *r.Visible
	}
	return usecase.ProductInput{
		Name:             r.Name,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		SlashPrice:       r.SlashPrice,
		Image:            r.Image,
		Images:           r.Images,
		Category:         r.Category,
		Colors:           r.Colors,
		Sizes:            r.Sizes,
		StockQuantity:    r.StockQuantity,
		Status:           r.Status,
		RestockDate:      r.RestockDate,
		Featured:         r.Featured,
		Trending:         r.Trending,
		NewArrival:       r.NewArrival,
		FlashSale:        r.FlashSale,
		Visible:          visible,
	}
}

// 在庫更新の入力
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と在庫・レビュー・入荷通知をまとめる
type AdminProductHandler struct {
	uc      *usecase.ProductUsecase
	reviews *usecase.ReviewUsecase
	restock *usecase.RestockUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase, reviews *usecase.ReviewUsecase, restock *usecase.RestockUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, reviews: reviews, restock: restock}
}

func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/products", h.listProducts)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/products/:id/stock", h.updateInventory)

	admin.GET("/products/:id/reviews", h.listReviews)
	admin.POST("/reviews/:id/approve", h.approveReview)

	admin.GET("/restock-subscriptions", h.listRestock)
	admin.POST("/products/:id/restock-notify", h.notifyRestock)
}

func (h *AdminProductHandler) listProducts(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.AdminListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:   page,
		Limit:  limit,
		Q:      c.QueryParam("q"),
		Filter: c.QueryParam("filter"),
		Sort:   c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.toInput()); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

func (h *AdminProductHandler) listReviews(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	list, err := h.reviews.AdminListByProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminProductHandler) approveReview(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	r, err := h.reviews.Approve(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *AdminProductHandler) listRestock(c echo.Context) error {
	list, err := h.restock.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminProductHandler) notifyRestock(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.restock.NotifySubscribers(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
