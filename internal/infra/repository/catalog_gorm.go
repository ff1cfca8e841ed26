package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv *model.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64, onlyApproved bool) ([]model.Review, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if onlyApproved {
		q = q.Where("approved = ?", true)
	}
	var list []model.Review
	if err := q.Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReviewGormRepository) Approve(ctx context.Context, reviewID int64) (model.Review, error) {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", reviewID).
		Update("approved", true)
	if res.Error != nil {
		return model.Review{}, res.Error
	}
	var rv model.Review
	if err := r.db.WithContext(ctx).First(&rv, reviewID).Error; err != nil {
		return model.Review{}, mapErr(err)
	}
	return rv, nil
}

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c *model.Category) error {
	return mapErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) error {
	res := r.db.WithContext(ctx).Model(&model.Category{ID: c.ID}).
		Select("name", "description").
		Updates(&c)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CategoryGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type BannerGormRepository struct {
	db *gorm.DB
}

func NewBannerGormRepository(db *gorm.DB) *BannerGormRepository {
	return &BannerGormRepository{db: db}
}

func (r *BannerGormRepository) List(ctx context.Context) ([]model.Banner, error) {
	var list []model.Banner
	if err := r.db.WithContext(ctx).Order("sort_order asc").Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *BannerGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Banner{}).Count(&n).Error
	return n, err
}

func (r *BannerGormRepository) Create(ctx context.Context, b *model.Banner) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BannerGormRepository) Update(ctx context.Context, b model.Banner) error {
	res := r.db.WithContext(ctx).Model(&model.Banner{ID: b.ID}).
		Select("title", "subtitle", "image", "media_type", "sort_order").
		Updates(&b)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *BannerGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Banner{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var (
	_ repo.ReviewRepository   = (*ReviewGormRepository)(nil)
	_ repo.CategoryRepository = (*CategoryGormRepository)(nil)
	_ repo.BannerRepository   = (*BannerGormRepository)(nil)
)
