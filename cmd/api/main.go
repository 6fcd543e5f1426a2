package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/infra/cache"
	"shop/internal/infra/db"
	"shop/internal/infra/mail"
	"shop/internal/infra/payment"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/logger"
	"shop/internal/server"
	"shop/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	favouriteRepo := infraRepo.NewFavouriteGormRepository(gormDB)
	mailRepo := infraRepo.NewMailCustomerGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	cityRepo := infraRepo.NewCityGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//カタログキャッシュ（REDIS_ADDRがあるときだけ）
	var catalogCache usecase.CatalogCache
	if cfg.Redis.Enabled() {
		rc := cache.NewRedisCatalogCache(cfg.Redis, cfg.CacheTTL, log)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			catalogCache = rc
			defer func() { _ = rc.Close() }()
		}
		cancel()
	}

	//外部サービス
	gateway := payment.NewStripeGateway(cfg.Payment.StripeSecretKey)
	if cfg.Payment.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty, checkout will fail")
	}
	mailer := mail.NewSMTPMailer(cfg.Mail)

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, log)
	catalogUC := usecase.NewCatalogUsecase(categoryRepo, productRepo, reviewRepo, catalogCache, log)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, log)
	favouriteUC := usecase.NewFavouriteUsecase(favouriteRepo, productRepo, log)
	cityUC := usecase.NewCityUsecase(cityRepo, log)
	cartUC := usecase.NewCartUsecase(txm, log)
	checkoutUC := usecase.NewCheckoutUsecase(txm, gateway, usecase.CheckoutConfig{
		Currency:    cfg.Payment.Currency,
		ProductName: cfg.Payment.ProductName,
		SuccessURL:  baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   baseURL + "/checkout/cancel",
	}, log)
	historyUC := usecase.NewOrderHistoryUsecase(txm, log)
	subscriptionUC := usecase.NewSubscriptionUsecase(mailRepo, mailer, cfg.Mail.Subject, log)
	profileUC := usecase.NewProfileUsecase(profileRepo, userRepo, log)

	//Handler生成
	e := server.New(log)
	server.RegisterRoutes(e, cfg.Auth.JWTSecret, userRepo,
		handler.NewAuthHandler(authUC),
		handler.NewCatalogHandler(catalogUC, reviewUC, favouriteUC, cityUC),
		handler.NewCartHandler(cartUC),
		handler.NewCheckoutHandler(checkoutUC, historyUC),
		handler.NewAccountHandler(subscriptionUC, profileUC),
		handler.NewAdminHandler(catalogUC, subscriptionUC),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Port
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}
	return server.Start(ctx, e, addr, log)
}
