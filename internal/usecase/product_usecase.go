package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	defaultProductLimit = 30
	maxProductLimit     = 100
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, tx: tx}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page   int
	Limit  int
	Q      string
	Filter string
	Sort   string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, false)
}

// 非公開も含む
func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, true)
}

func (u *ProductUsecase) list(ctx context.Context, in ListProductsInput, includeHidden bool) (ProductListOutput, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = defaultProductLimit
	}
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > maxProductLimit {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "default", "best-sellers", "most-rated", "most-liked":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:          in.Page,
		Limit:         in.Limit,
		Q:             strings.TrimSpace(in.Q),
		Filter:        strings.TrimSpace(in.Filter),
		Sort:          in.Sort,
		IncludeHidden: includeHidden,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.Visible {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type LikeOutput struct {
	ProductID int64 `json:"product_id"`
	Likes     int64 `json:"likes"`
}

// likes+1
func (u *ProductUsecase) LikeProduct(ctx context.Context, productID int64) (LikeOutput, error) {
	if productID <= 0 {
		return LikeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	likes, err := u.productRepo.IncrementLikes(ctx, productID)
	if err == repo.ErrNotFound {
		return LikeOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return LikeOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return LikeOutput{ProductID: productID, Likes: likes}, nil
}

type ProductInput struct {
	Name             string
	Description      string
	ShortDescription string
	Price            int64
	SlashPrice       *int64
	Image            string
	Images           []string
	Category         string
	Colors           []string
	Sizes            []string
	StockQuantity    int64
	Status           model.ProductStatus
	RestockDate      *time.Time
	Featured         bool
	Trending         bool
	NewArrival       bool
	FlashSale        bool
	Visible          bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.SlashPrice != nil && *in.SlashPrice < 0 {
		return NewHTTPError(http.StatusBadRequest, "slash_price must be >= 0")
	}
	if in.StockQuantity < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock_quantity must be >= 0")
	}
	switch in.Status {
	case "", model.ProductStatusInStock, model.ProductStatusOutOfStock, model.ProductStatusRestocking:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return nil
}

func (in ProductInput) toModel(id int64) model.Product {
	return model.Product{
		ID:               id,
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Price:            in.Price,
		SlashPrice:       in.SlashPrice,
		Image:            in.Image,
		Images:           nonNil(in.Images),
		Category:         strings.TrimSpace(in.Category),
		Colors:           nonNil(in.Colors),
		Sizes:            nonNil(in.Sizes),
		StockQuantity:    in.StockQuantity,
		Status:           in.Status,
		RestockDate:      in.RestockDate,
		Featured:         in.Featured,
		Trending:         in.Trending,
		NewArrival:       in.NewArrival,
		FlashSale:        in.FlashSale,
		Visible:          in.Visible,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, in.toModel(0))
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in ProductInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, in.toModel(productID))
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 在庫を現在値で上書きし、調整履歴と監査ログを残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return err
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			ActorUserID: adminUserID,
			Kind:        model.AdjustmentManual,
			Delta:       newStock - p.StockQuantity,
			Reason:      strings.TrimSpace(reason),
		}); err != nil {
			return err
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock_quantity":%d}`, p.StockQuantity),
			AfterJSON:    fmt.Sprintf(`{"stock_quantity":%d}`, newStock),
		})
	})
	return txError(err)
}
