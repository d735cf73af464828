package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vpn-storefront/internal/config"
	"vpn-storefront/internal/domain/ports/adapter"
	mailAdapters "vpn-storefront/internal/infra/adapters/mail"
	payAdapters "vpn-storefront/internal/infra/adapters/payment"
	vpnAdapters "vpn-storefront/internal/infra/adapters/vpn"
	widgetAdapters "vpn-storefront/internal/infra/adapters/widget"
	"vpn-storefront/internal/infra/api"
	pg "vpn-storefront/internal/infra/db/postgres"
	"vpn-storefront/internal/infra/i18n"
	"vpn-storefront/internal/infra/logging"
	"vpn-storefront/internal/infra/metrics"
	red "vpn-storefront/internal/infra/redis"
	"vpn-storefront/internal/infra/web"
	"vpn-storefront/internal/infra/worker"
	"vpn-storefront/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway/mailer/provisioner)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	referralCache := red.NewReferralCache(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "es")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Repositories ----
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	couponRepo := pg.NewCouponRepo(pool)
	referralRepo := pg.NewReferralRepo(pool)
	promotionRepo := pg.NewPromotionRepo(pool)
	walletRepo := pg.NewWalletRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Adapters ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Warn().Msg("payment gateway: noop")
	} else {
		gateway, err = payAdapters.NewMercadoPagoGateway(cfg.MercadoPago.AccessToken, cfg.MercadoPago.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("mercadopago gateway")
		}
	}

	var mailer adapter.Mailer
	if cfg.Mail.Host == "" {
		mailer = mailAdapters.NewNoopMailer()
		logger.Warn().Msg("mailer: noop (mail.host not configured)")
	} else {
		mailer = mailAdapters.NewSMTPMailer(cfg.Mail, logger)
	}

	var provisioner adapter.Provisioner
	if cfg.Provisioner.BaseURL == "" {
		provisioner = vpnAdapters.NewNoopProvisioner()
		logger.Warn().Msg("provisioner: noop (provisioner.base_url not configured)")
	} else {
		provisioner, err = vpnAdapters.NewPanelProvisioner(cfg.Provisioner)
		if err != nil {
			logger.Fatal().Err(err).Msg("vpn panel provisioner")
		}
	}

	bridge := widgetAdapters.NewBricksBridge(logger)
	widgetMgr := usecase.SharedWidgetManager(bridge, cfg.MercadoPago.PublicKey, logger)

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase()
	couponUC := usecase.NewCouponUseCase(couponRepo, rateLimiter, logger)
	referralUC := usecase.NewReferralUseCase(referralRepo, walletRepo, referralCache, tm, rateLimiter, logger)
	walletUC := usecase.NewWalletUseCase(walletRepo, logger)
	promotionUC := usecase.NewPromotionUseCase(promotionRepo)
	planUC := usecase.NewPlanUseCase(planRepo)
	statsUC := usecase.NewStatsUseCase(paymentRepo, referralRepo)

	urls := usecase.CheckoutURLs{
		Success:      cfg.Server.BaseURL + cfg.MercadoPago.SuccessPath,
		Failure:      cfg.Server.BaseURL + cfg.MercadoPago.FailurePath,
		Notification: cfg.Server.BaseURL + cfg.MercadoPago.WebhookPath,
	}
	checkoutUC := usecase.NewCheckoutUseCase(
		pricingUC, couponUC, referralUC, walletUC, promotionUC,
		planRepo, paymentRepo, couponRepo, referralRepo, walletRepo, tm,
		gateway, provisioner, mailer, urls, logger,
	)
	reconcileUC := usecase.NewReconcileUseCase(paymentRepo, logger)

	// ---- Public storefront API ----
	apiSrv := api.NewServer(
		checkoutUC, reconcileUC, widgetMgr, bridge,
		planRepo, paymentRepo, locker, translator,
		cfg.MercadoPago.WidgetContainer, logger,
	)
	publicServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: apiSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", publicServer.Addr).Msg("public API listening")
		if err := publicServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public server error")
		}
	}()

	// ---- Admin API + metrics ----
	authMgr := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(planUC, couponUC, promotionUC, referralUC, statsUC, authMgr, cfg.Admin.APIKey, logger)
	adminMux := http.NewServeMux()
	adminSrv.RegisterRoutes(adminMux)
	metrics.MustRegister()
	adminMux.Handle("/metrics", metrics.Handler())
	adminServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler: adminMux,
	}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin API listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Background reconciliation ----
	workerPool := worker.NewPool(cfg.Reconciler.Workers, logger)
	workerPool.Start(ctx)
	reconciler := worker.NewReconciler(checkoutUC, paymentRepo, locker, cfg.Reconciler.SweepInterval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx, workerPool)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = publicServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
	workerPool.Stop()
}
