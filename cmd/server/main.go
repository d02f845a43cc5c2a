package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/scambase-backend/internal/config"
	"github.com/ignatzorin/scambase-backend/internal/db"
	"github.com/ignatzorin/scambase-backend/internal/dispatch"
	"github.com/ignatzorin/scambase-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/scambase-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/scambase-backend/internal/http/router"
	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/service"
	"github.com/ignatzorin/scambase-backend/internal/session"
	"github.com/ignatzorin/scambase-backend/internal/store"
	"github.com/ignatzorin/scambase-backend/internal/ws"
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

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			log.Fatalf("main: ошибка инициализации sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	recovery := goroutine.NewRecoveryHandler(logger.Log)

	// Хранилище базы репутации: JSON-файл или PostgreSQL.
	var (
		reputationStore store.Store
		dbConn          *sqlx.DB
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}

		pgStore := store.NewPostgresStore(dbConn)
		if len(cfg.Moderators) > 0 {
			if err := pgStore.AddModerators(ctx, cfg.Moderators); err != nil {
				log.Fatalf("main: не удалось заполнить список модераторов: %v", err)
			}
		}
		reputationStore = pgStore
	case config.StoreDriverFile:
		fileStore, err := store.NewFileStore(cfg.DataFile, logger.Log)
		if err != nil {
			log.Fatalf("main: не удалось открыть файловое хранилище: %v", err)
		}
		if len(cfg.Moderators) > 0 {
			if err := fileStore.SetModerators(cfg.Moderators); err != nil {
				log.Fatalf("main: не удалось заполнить список модераторов: %v", err)
			}
		}
		reputationStore = fileStore
	}

	// Сервисы.
	recordService := service.NewRecordService(reputationStore)
	moderationService := service.NewModerationService(reputationStore, recordService)

	// Вебсокеты: живая лента заявок для модераторов.
	hub := ws.NewHub()
	recovery.SafeGo(hub.Run)
	defer hub.Stop()
	moderationService.SetNotifier(ws.NewRequestNotifier(hub))

	// Диалоговые сессии.
	sessions := session.NewManager(cfg.SessionTTL)
	if cfg.SessionTTL > 0 {
		sessions.StartSweeper(recovery)
		defer sessions.Stop()
	}

	dispatcher := dispatch.NewDispatcher(sessions, recordService, moderationService, logger.Log)

	// HTTP хэндлеры.
	eventHandler := httpHandlers.NewEventHandler(dispatcher)
	wsHandler := httpHandlers.NewWSHandler(hub, moderationService, recovery)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, eventHandler, wsHandler, healthHandler)

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
