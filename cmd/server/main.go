package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wista110/sports-nurse-web-sub001/internal/config"
	"github.com/wista110/sports-nurse-web-sub001/internal/db"
	"github.com/wista110/sports-nurse-web-sub001/internal/fees"
	"github.com/wista110/sports-nurse-web-sub001/internal/gateway"
	httpHandlers "github.com/wista110/sports-nurse-web-sub001/internal/http/handlers"
	httpRouter "github.com/wista110/sports-nurse-web-sub001/internal/http/router"
	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/repository"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
	"github.com/wista110/sports-nurse-web-sub001/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные компоненты.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	calculator := fees.NewCalculator(cfg.PlatformFeeRate, cfg.InstantFeeRate, cfg.ScheduledFeeRate, cfg.MinimumFee, cfg.MaximumFee)

	var paymentGateway gateway.PaymentGateway
	if cfg.PaymentGatewayURL != "" {
		paymentGateway = gateway.NewHTTPGateway(cfg.PaymentGatewayURL)
	} else {
		paymentGateway = gateway.NewMockGateway()
	}

	// Репозитории.
	jobRepo := repository.NewJobRepository(dbConn)
	applicationRepo := repository.NewApplicationRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	payoutRepo := repository.NewPayoutRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()
	notifier := ws.NewNotifier(hub)

	// Сервисы.
	escrowService := service.NewEscrowService(escrowRepo, jobRepo, applicationRepo, calculator, paymentGateway, auditRepo)
	jobService := service.NewJobService(jobRepo, applicationRepo, escrowService, auditRepo, notifier)
	reviewService := service.NewReviewService(reviewRepo, jobRepo, applicationRepo, userRepo, auditRepo, notifier)
	payoutService := service.NewPayoutService(payoutRepo, jobRepo, applicationRepo, escrowRepo, calculator, auditRepo, notifier)

	// HTTP хэндлеры.
	jobHandler := httpHandlers.NewJobHandler(jobService)
	applicationHandler := httpHandlers.NewApplicationHandler(jobService)
	escrowHandler := httpHandlers.NewEscrowHandler(escrowService)
	payoutHandler := httpHandlers.NewPayoutHandler(payoutService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	cronHandler := httpHandlers.NewCronHandler(payoutService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, jobHandler, applicationHandler, escrowHandler, payoutHandler, reviewHandler, cronHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
