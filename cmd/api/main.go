package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/media"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/worker"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/seed"
	"storefront/internal/server"
	"storefront/internal/tracing"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

const previewCapacity = 64

func main() {
	// .envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Jaeger != "" {
		tp, err := tracing.Init(cfg.Jaeger)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	checkoutRepo := infraRepo.NewCheckoutGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	restockRepo := infraRepo.NewRestockGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	bannerRepo := infraRepo.NewBannerGormRepository(gormDB)
	settingsRepo := infraRepo.NewShippingSettingsGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	// ロック: Redisが無ければプロセス内
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rl, err := cache.NewRedisLocker(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = rl.Close() }()
		locker = rl
	}

	var pub broker.Publisher = broker.NewNopPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		pub = broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	}
	defer func() { _ = pub.Close() }()

	primary, err := newMediaHost(ctx, cfg.Media)
	if err != nil {
		return err
	}
	previews := media.NewPreviewStore(previewCapacity)
	mediaHost := media.NewFallbackHost(primary, previews, log)

	syncWorker := worker.NewCartSyncWorker(cartRepo, worker.CartSyncConfig{
		RPS:         cfg.CartSync.RPS,
		MaxAttempts: cfg.CartSync.MaxAttempts,
	}, log)
	syncWorker.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		syncWorker.Stop(stopCtx)
	}()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo), log)
	productUC := usecase.NewProductUsecase(productRepo, txm)
	reviewUC := usecase.NewReviewUsecase(txm, reviewRepo, userRepo)
	catalogUC := usecase.NewCatalogUsecase(categoryRepo, bannerRepo, settingsRepo, auditRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, settingsRepo, couponUC, syncWorker, log)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, pub, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, pub, log)
	notificationUC := usecase.NewNotificationUsecase(txm, notificationRepo, log)
	restockUC := usecase.NewRestockUsecase(txm, restockRepo, productRepo, userRepo, pub, log)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	mediaUC := usecase.NewMediaUsecase(mediaHost, previews)

	// 開発用ゲートウェイはセッション金額を参照するので後から埋める
	var checkoutUC *usecase.CheckoutUsecase
	var gateway payment.Gateway
	if cfg.Payment.SecretKey != "" {
		gateway = payment.NewPaystackGateway(cfg.Payment.BaseURL, cfg.Payment.SecretKey)
	} else {
		log.Warn("PAYSTACK_SECRET_KEY not set, payments are trusted")
		gateway = payment.NewTrustingGateway(func(ctx context.Context, ref string) (int64, error) {
			return checkoutUC.SessionAmount(ctx, ref)
		})
	}
	checkoutUC = usecase.NewCheckoutUsecase(usecase.CheckoutDeps{
		Tx:        txm,
		Sessions:  checkoutRepo,
		Orders:    orderRepo,
		Products:  productRepo,
		Addresses: addressRepo,
		Settings:  settingsRepo,
		Cart:      cartUC,
		Coupons:   couponUC,
		Gateway:   gateway,
		Locker:    locker,
		Publisher: pub,
		Log:       log,
	}, usecase.CheckoutConfig{
		Currency:    cfg.Payment.Currency,
		PublicKey:   cfg.Payment.PublicKey,
		StrictStock: cfg.StrictStock,
	})

	seeder := seed.NewSeeder(productRepo, categoryRepo, bannerRepo, userRepo, log)
	if cfg.SeedDemo {
		catalog, err := seed.LoadCatalog()
		if err != nil {
			return err
		}
		if err := seeder.SeedCatalog(ctx, catalog); err != nil {
			return err
		}
	}
	if err := seeder.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cfg.RefreshTTL, cfg.IsProd()),
		AdminUser:    handler.NewAdminUserHandler(authUC, auditRepo),
		Product:      handler.NewProductHandler(productUC, reviewUC, restockUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, reviewUC, restockUC),
		Catalog:      handler.NewCatalogHandler(catalogUC),
		Cart:         handler.NewCartHandler(cartUC),
		Coupon:       handler.NewCouponHandler(couponUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		Notification: handler.NewNotificationHandler(notificationUC),
		Address:      handler.NewAddressHandler(addressUC),
		Media:        handler.NewMediaHandler(mediaUC),
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx.Done(), time.Minute)

	e := server.New(cfg, log, userRepo, limiter, h)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Start(ctx, e, addr, log)
}

func newMediaHost(ctx context.Context, mc config.MediaConfig) (media.Host, error) {
	if mc.Backend == "s3" {
		return media.NewS3Host(ctx, media.S3HostConfig{
			Bucket:        mc.S3Bucket,
			Region:        mc.S3Region,
			Endpoint:      mc.S3Endpoint,
			PublicBaseURL: mc.S3PublicBaseURL,
		})
	}
	return media.NewCloudinaryHost(mc.CloudinaryBaseURL, mc.CloudinaryCloudName, mc.CloudinaryUploadPreset), nil
}
