package db

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/internal/domain/model"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if log.Core().Enabled(zap.DebugLevel) {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info("database connected")
	return db, nil
}

// テーブル作成
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Address{},
		&model.Product{},
		&model.Category{},
		&model.Banner{},
		&model.Review{},
		&model.Cart{},
		&model.Coupon{},
		&model.ShippingSettings{},
		&model.CheckoutSession{},
		&model.Order{},
		&model.OrderItem{},
		&model.Notification{},
		&model.AnnouncementRead{},
		&model.RestockSubscription{},
		&model.AuditLog{},
		&model.InventoryAdjustment{},
	)
}
