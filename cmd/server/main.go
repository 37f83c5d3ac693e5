package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maib-checkout/internal/checkout"
	"maib-checkout/internal/config"
	"maib-checkout/internal/db"
	"maib-checkout/internal/logger"
	"maib-checkout/internal/maib"
	"maib-checkout/internal/metrics"
	"maib-checkout/internal/middleware"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"
	"maib-checkout/internal/reconcile"
	"maib-checkout/internal/session"

	"go.uber.org/zap"
)

type app struct {
	handler  http.Handler
	sweeper  *reconcile.Sweeper
	dayClose *reconcile.DayCloseJob
	limiter  *middleware.RateLimiter
}

func newApp(cfg *config.Config, database *sql.DB, bankClient *http.Client, log *zap.Logger) *app {
	stats := &metrics.ReconcileStats{}

	orderSvc := order.NewService(order.NewRepository(database), log)
	paymentSvc := payment.NewService(
		payment.NewRepository(database),
		cfg.MAIB.GatewayIDs,
		payment.ParseIntent(cfg.MAIB.Intent),
		log,
	)

	client := maib.NewClient(cfg.MAIB.MerchantURL, bankClient, log)
	gateway := maib.NewGateway(cfg.MAIB.GatewayID, cfg.MAIB.ClientURL, client, paymentSvc, log)

	sessions := session.NewStore([]byte(cfg.SessionKey), cfg.AppEnv == "production")
	flow := checkout.NewFlow(cfg.AppBaseURL, cfg.CheckoutSteps)
	checkoutSvc := checkout.NewService(orderSvc, paymentSvc, gateway, flow, log)
	checkoutHandler := checkout.NewHandler(checkoutSvc, checkout.NewGuard(sessions), sessions, cfg.MAIB.Language, log)

	worker := reconcile.NewWorker(paymentSvc, orderSvc, gateway, stats, log)
	limiter := middleware.NewRateLimiter()

	handler := middleware.Chain(setupRouter(checkoutHandler, stats),
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware(log),
		middleware.Authenticate([]byte(cfg.SecretKey), cfg.AnonymousPermissions, log),
		limiter.Middleware,
	)

	return &app{
		handler: handler,
		sweeper: reconcile.NewSweeper(paymentSvc, worker,
			cfg.ReconcileInterval, cfg.ReconcileStalledAfter, cfg.ReconcileBatchSize, stats, log),
		dayClose: reconcile.NewDayCloseJob(gateway, cfg.CloseDayInterval, log),
		limiter:  limiter,
	}
}

func setupRouter(checkoutHandler *checkout.Handler, stats *metrics.ReconcileStats) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "OK",
			"reconcile": stats.Snapshot(),
		})
	})
	checkoutHandler.Register(mux)

	return mux
}

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg, log)
	defer database.Close()

	cert, err := maib.LoadCertificate(maib.CertificateSource{
		CertPath: cfg.MAIB.CertPath,
		KeyPath:  cfg.MAIB.KeyPath,
		PFXPath:  cfg.MAIB.PFXPath,
		Password: cfg.MAIB.CertPassword,
	})
	if err != nil {
		log.Fatal("Failed to load MAIB client certificate", zap.Error(err))
	}

	a := newApp(cfg, database, maib.NewHTTPClient(cert, cfg.MAIB.Timeout), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sweeper.Run(ctx)
	go a.dayClose.Run(ctx)
	go a.limiter.Cleanup(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server running", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
