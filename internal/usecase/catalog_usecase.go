package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// カテゴリ・バナー・送料設定
type CatalogUsecase struct {
	categories repo.CategoryRepository
	banners    repo.BannerRepository
	settings   repo.ShippingSettingsRepository
	audit      repo.AuditLogRepository
}

func NewCatalogUsecase(
	categories repo.CategoryRepository,
	banners repo.BannerRepository,
	settings repo.ShippingSettingsRepository,
	audit repo.AuditLogRepository,
) *CatalogUsecase {
	return &CatalogUsecase{categories: categories, banners: banners, settings: settings, audit: audit}
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *CatalogUsecase) CreateCategory(ctx context.Context, name, description string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	c := model.Category{Name: name, Description: description}
	err := u.categories.Create(ctx, &c)
	if err == repo.ErrDuplicate {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CatalogUsecase) UpdateCategory(ctx context.Context, id int64, name, description string) error {
	name = strings.TrimSpace(name)
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if name == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	err := u.categories.Update(ctx, model.Category{ID: id, Name: name, Description: description})
	switch err {
	case nil:
		return nil
	case repo.ErrNotFound:
		return NewHTTPError(http.StatusNotFound, "not found")
	case repo.ErrDuplicate:
		return NewHTTPError(http.StatusConflict, "category already exists")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

func (u *CatalogUsecase) DeleteCategory(ctx context.Context, id int64) error {
	err := u.categories.Delete(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// orderの昇順
func (u *CatalogUsecase) ListBanners(ctx context.Context) ([]model.Banner, error) {
	list, err := u.banners.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

type BannerInput struct {
	Title     string
	Subtitle  string
	Image     string
	MediaType model.MediaType
	Order     int
}

func (in BannerInput) toModel(id int64) (model.Banner, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Banner{}, NewHTTPError(http.StatusBadRequest, "title required")
	}
	if strings.TrimSpace(in.Image) == "" {
		return model.Banner{}, NewHTTPError(http.StatusBadRequest, "image required")
	}
	mt := in.MediaType
	if mt == "" {
		mt = model.MediaImage
	}
	if mt != model.MediaImage && mt != model.MediaVideo {
		return model.Banner{}, NewHTTPError(http.StatusBadRequest, "invalid media_type")
	}
	return model.Banner{
		ID:        id,
		Title:     strings.TrimSpace(in.Title),
		Subtitle:  in.Subtitle,
		Image:     in.Image,
		MediaType: mt,
		Order:     in.Order,
	}, nil
}

func (u *CatalogUsecase) CreateBanner(ctx context.Context, in BannerInput) (model.Banner, error) {
	b, err := in.toModel(0)
	if err != nil {
		return model.Banner{}, err
	}
	if err := u.banners.Create(ctx, &b); err != nil {
		return model.Banner{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return b, nil
}

func (u *CatalogUsecase) UpdateBanner(ctx context.Context, id int64, in BannerInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := in.toModel(id)
	if err != nil {
		return err
	}
	err = u.banners.Update(ctx, b)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CatalogUsecase) DeleteBanner(ctx context.Context, id int64) error {
	err := u.banners.Delete(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 未設定なら既定値
func (u *CatalogUsecase) GetShippingSettings(ctx context.Context) (model.ShippingSettings, error) {
	return loadShippingSettings(ctx, u.settings)
}

type ShippingSettingsInput struct {
	Rate                  int64
	FreeShippingThreshold *int64
	IsFreeShippingEnabled bool
}

func (u *CatalogUsecase) UpdateShippingSettings(ctx context.Context, adminUserID int64, in ShippingSettingsInput) (model.ShippingSettings, error) {
	if in.Rate < 0 {
		return model.ShippingSettings{}, NewHTTPError(http.StatusBadRequest, "rate must be >= 0")
	}
	if in.FreeShippingThreshold != nil && *in.FreeShippingThreshold < 0 {
		return model.ShippingSettings{}, NewHTTPError(http.StatusBadRequest, "free_shipping_threshold must be >= 0")
	}

	before, err := loadShippingSettings(ctx, u.settings)
	if err != nil {
		return model.ShippingSettings{}, err
	}

	after := model.ShippingSettings{
		ID:                    model.ShippingSettingsID,
		Type:                  model.ShippingTypeFlatRate,
		Rate:                  in.Rate,
		FreeShippingThreshold: in.FreeShippingThreshold,
		IsFreeShippingEnabled: in.IsFreeShippingEnabled,
	}
	if err := u.settings.Save(ctx, after); err != nil {
		return model.ShippingSettings{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if u.audit != nil {
		_ = u.audit.Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateShipping,
			ResourceType: model.AuditResourceSettings,
			ResourceID:   model.ShippingSettingsID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
		})
	}
	return after, nil
}

func loadShippingSettings(ctx context.Context, settings repo.ShippingSettingsRepository) (model.ShippingSettings, error) {
	s, err := settings.Get(ctx)
	if err == repo.ErrNotFound {
		return model.DefaultShippingSettings(), nil
	}
	if err != nil {
		return model.ShippingSettings{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}
