// Package seed は起動時のデモデータ投入。
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Categories []CategorySeed `yaml:"categories"`
	Banners    []BannerSeed   `yaml:"banners"`
	Products   []ProductSeed  `yaml:"products"`
}

type CategorySeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type BannerSeed struct {
	Title     string `yaml:"title"`
	Subtitle  string `yaml:"subtitle"`
	Image     string `yaml:"image"`
	MediaType string `yaml:"media_type"`
	Order     int    `yaml:"order"`
}

type ProductSeed struct {
	Name             string   `yaml:"name"`
	ShortDescription string   `yaml:"short_description"`
	Description      string   `yaml:"description"`
	Price            int64    `yaml:"price"`
	SlashPrice       *int64   `yaml:"slash_price"`
	Image            string   `yaml:"image"`
	Category         string   `yaml:"category"`
	Colors           []string `yaml:"colors"`
	Sizes            []string `yaml:"sizes"`
	StockQuantity    int64    `yaml:"stock_quantity"`
	Status           string   `yaml:"status"`
	Featured         bool     `yaml:"featured"`
	Trending         bool     `yaml:"trending"`
	NewArrival       bool     `yaml:"new_arrival"`
	FlashSale        bool     `yaml:"flash_sale"`
}

// 埋め込みカタログを読む
func LoadCatalog() (Catalog, error) {
	return ParseCatalog(catalogYAML)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse seed catalog: %w", err)
	}
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return Catalog{}, fmt.Errorf("seed product %d: name required", i)
		}
		if p.Price < 0 || p.StockQuantity < 0 {
			return Catalog{}, fmt.Errorf("seed product %q: negative price or stock", p.Name)
		}
	}
	return c, nil
}

func (p ProductSeed) toModel() model.Product {
	status := model.ProductStatus(p.Status)
	if status == "" {
		status = model.ProductStatusInStock
	}
	images := []string{}
	if p.Image != "" {
		images = append(images, p.Image)
	}
	return model.Product{
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Price:            p.Price,
		SlashPrice:       p.SlashPrice,
		Image:            p.Image,
		Images:           images,
		Category:         p.Category,
		Colors:           p.Colors,
		Sizes:            p.Sizes,
		StockQuantity:    p.StockQuantity,
		Status:           model.DeriveProductStatus(p.StockQuantity, status),
		Featured:         p.Featured,
		Trending:         p.Trending,
		NewArrival:       p.NewArrival,
		FlashSale:        p.FlashSale,
		Visible:          true,
	}
}

type Seeder struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	banners    repo.BannerRepository
	users      repo.UserRepository
	log        *zap.Logger
}

func NewSeeder(
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	banners repo.BannerRepository,
	users repo.UserRepository,
	log *zap.Logger,
) *Seeder {
	return &Seeder{products: products, categories: categories, banners: banners, users: users, log: log}
}

// 商品が1件もなければカタログを入れる
func (s *Seeder) SeedCatalog(ctx context.Context, c Catalog) error {
	n, err := s.products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		s.log.Debug("seed skipped, catalog not empty", zap.Int64("products", n))
		return nil
	}

	for _, cs := range c.Categories {
		cat := model.Category{Name: cs.Name, Description: cs.Description}
		// 既存カテゴリはそのまま
		if err := s.categories.Create(ctx, &cat); err != nil && err != repo.ErrDuplicate {
			return fmt.Errorf("seed category %q: %w", cs.Name, err)
		}
	}

	bannerCount, err := s.banners.Count(ctx)
	if err != nil {
		return fmt.Errorf("count banners: %w", err)
	}
	if bannerCount == 0 {
		for _, bs := range c.Banners {
			mt := model.MediaType(bs.MediaType)
			if mt != model.MediaVideo {
				mt = model.MediaImage
			}
			b := model.Banner{Title: bs.Title, Subtitle: bs.Subtitle, Image: bs.Image, MediaType: mt, Order: bs.Order}
			if err := s.banners.Create(ctx, &b); err != nil {
				return fmt.Errorf("seed banner %q: %w", bs.Title, err)
			}
		}
	}

	for _, ps := range c.Products {
		if _, err := s.products.Create(ctx, ps.toModel()); err != nil {
			return fmt.Errorf("seed product %q: %w", ps.Name, err)
		}
	}

	s.log.Info("demo catalog seeded",
		zap.Int("products", len(c.Products)),
		zap.Int("categories", len(c.Categories)),
	)
	return nil
}

// 管理者がいなければ作る。既存ユーザーならADMINに上げる
func (s *Seeder) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsAdmin() {
			return nil
		}
		u.Role = model.RoleAdmin
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		s.log.Info("existing user promoted to admin", zap.Int64("user_id", u.ID))
		return nil
	case err != repo.ErrUserNotFound:
		return fmt.Errorf("find admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "Admin",
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin user created", zap.Int64("user_id", admin.ID))
	return nil
}
