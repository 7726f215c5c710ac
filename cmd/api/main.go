package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/infra/cache"
	"marketplace/internal/infra/db"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/infra/telemetry"
	"marketplace/internal/logger"
	"marketplace/internal/server"
	"marketplace/internal/usecase"
	auth "marketplace/internal/usecase/auth_usecase"
	"marketplace/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// .env は無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEnabled {
		shutdown, err := telemetry.Setup(os.Stdout, version)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), !cfg.IsProd())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//カタログキャッシュ（REDIS_ADDR が無ければ使わない）
	var catalogCache usecase.CatalogCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			zlog.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			catalogCache = cache.NewRedisCache(client, cfg.CatalogCacheTTL)
		}
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	tx := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(
		infraRepo.NewCompanyGormRepository(gormDB),
		infraRepo.NewProductGormRepository(gormDB),
		catalogCache,
		zlog,
	)
	cartUC := usecase.NewCartUsecase(tx)
	checkoutUC := usecase.NewCheckoutUsecase(tx, usecase.NewRandomCodeGenerator(), catalogUC, zlog)
	orderUC := usecase.NewOrderUsecase(tx, zlog)
	pixUC := usecase.NewPixUsecase(tx, cfg.PixExpiry, zlog)
	productUC := usecase.NewProductUsecase(tx, catalogUC)
	companyUC := usecase.NewCompanyUsecase(tx, catalogUC)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	loginUC := auth.NewLoginUsecase(
		userRepo,
		validator.NewAuthValidator(),
		auth.NewBcryptPasswordVerifier(),
		auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL),
		auth.SystemClock{},
	)

	//Handler生成
	e := server.New(cfg, zlog, server.Handlers{
		Auth:    handler.NewAuthHandler(loginUC),
		Catalog: handler.NewCatalogHandler(catalogUC),
		Cart:    handler.NewCartHandler(cartUC, checkoutUC),
		Order:   handler.NewOrderHandler(orderUC, pixUC),
		Product: handler.NewProductHandler(productUC),
		Company: handler.NewCompanyHandler(companyUC),
		Audit:   handler.NewAuditHandler(auditUC),
	})

	return server.Start(ctx, ":"+cfg.Port, e, zlog)
}
