package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 検索/絞り込み/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// 公開中のものだけ（削除済みはgormが除外）
	if !q.IncludeHidden {
		tx = tx.Where("visible = ?", true)
	}

	// 名前・説明・カテゴリを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ? OR category ILIKE ?", like, like, like)
	}

	switch f := strings.TrimSpace(q.Filter); f {
	case "", "all":
	case "featured":
		tx = tx.Where("featured = ?", true)
	case "trending":
		tx = tx.Where("trending = ?", true)
	case "new":
		tx = tx.Where("new_arrival = ?", true)
	case "flash_sale":
		tx = tx.Where("flash_sale = ?", true)
	default:
		tx = tx.Where("LOWER(category) = LOWER(?)", f)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "best-sellers":
		tx = tx.Order("sales desc").Order("id desc")
	case "most-rated":
		tx = tx.Order("rating desc").Order("review_count desc").Order("id desc")
	case "most-liked":
		tx = tx.Order("likes desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit > 0 {
		tx = tx.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}
	if err := tx.Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// 見つからないIDは結果に含まれない
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var list []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ProductGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.Status = model.DeriveProductStatus(p.StockQuantity, p.Status)
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（集計値は触らない）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	p.Status = model.DeriveProductStatus(p.StockQuantity, p.Status)
	res := r.db.WithContext(ctx).Model(&model.Product{ID: p.ID}).
		Select(
			"name", "description", "short_description", "price", "slash_price",
			"image", "images", "category", "colors", "sizes",
			"stock_quantity", "status", "restock_date",
			"featured", "trending", "new_arrival", "flash_sale", "visible",
		).
		Updates(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// likes+1（同時押しでも取りこぼさない）
func (r *ProductGormRepository) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	var likes int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).
			Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return tx.Model(&model.Product{}).Where("id = ?", id).Pluck("likes", &likes).Error
	})
	return likes, err
}

func (r *ProductGormRepository) UpdateReviewStats(ctx context.Context, id int64, rating float64, reviewCount int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)
