package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lostfound-backend/internal/config"
	"github.com/ignatzorin/lostfound-backend/internal/db"
	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/lostfound-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/lostfound-backend/internal/http/router"
	"github.com/ignatzorin/lostfound-backend/internal/infrastructure/persistence"
	newHandler "github.com/ignatzorin/lostfound-backend/internal/interface/http/handler"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/service"
	"github.com/ignatzorin/lostfound-backend/internal/storage"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/claim"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/item"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/messaging"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/reputation"
	"github.com/ignatzorin/lostfound-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
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

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	imageStorage, err := storage.NewImageStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	cacheService := service.NewCacheService()
	goroutine.DefaultRecoveryHandler.GoWithContext(ctx, "feed cache", func(ctx context.Context) {
		cacheService.Run(ctx, time.Minute)
	})

	// Репозитории.
	itemRepo := persistence.NewItemRepositoryAdapter(dbConn)
	messageRepo := persistence.NewMessageRepositoryAdapter(dbConn)
	userRepo := persistence.NewUserRepositoryAdapter(dbConn)
	codeRepo := persistence.NewRegistrationCodeRepositoryAdapter(dbConn)

	authService := service.NewAuthService(userRepo, codeRepo, tokenManager)
	ledger := reputation.NewLedger(userRepo)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	if cfg.RedisURL != "" {
		relay, err := ws.NewRedisRelay(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("main: не удалось подключиться к redis: %v", err)
		}
		defer func() {
			if err := relay.Close(); err != nil {
				logger.Log.WithError(err).Warn("main: ошибка закрытия redis")
			}
		}()
		hub.SetRelay(relay)
		logger.Log.Info("main: push события раздаются через redis")
	}
	goroutine.DefaultRecoveryHandler.Go("ws hub", hub.Run)

	// Use cases.
	createItemUC := item.NewCreateItemUseCase(itemRepo, cacheService)
	getItemUC := item.NewGetItemUseCase(itemRepo)
	listItemsUC := item.NewListItemsUseCase(itemRepo, cacheService, cfg.FeedCacheTTL)
	attachImageUC := item.NewAttachImageUseCase(itemRepo, imageStorage, cacheService)

	mintPinUC := claim.NewMintPinUseCase(itemRepo, valueobject.RandomPinGenerator{})
	mintPinUC.SetFeedCache(cacheService)
	verifyPinUC := claim.NewVerifyPinUseCase(itemRepo, ledger, cfg.ReputationPerResolve)
	verifyPinUC.SetNotifier(hub)
	verifyPinUC.SetFeedCache(cacheService)

	postMessageUC := messaging.NewPostMessageUseCase(itemRepo, userRepo, messageRepo)
	postMessageUC.SetNotifier(hub)
	getThreadUC := messaging.NewGetThreadUseCase(itemRepo, messageRepo)
	getThreadWithUC := messaging.NewGetThreadWithUseCase(itemRepo, messageRepo)

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Auth:      httpHandlers.NewAuthHandler(authService, cfg.Env != "production"),
		Profile:   httpHandlers.NewProfileHandler(userRepo, ledger),
		Health:    httpHandlers.NewHealthHandler(dbConn, hub),
		WS:        httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Item:      newHandler.NewItemHandler(createItemUC, getItemUC, listItemsUC, attachImageUC),
		Claim:     newHandler.NewClaimHandler(mintPinUC, verifyPinUC),
		Messaging: newHandler.NewMessagingHandler(postMessageUC, getThreadUC, getThreadWithUC),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

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
