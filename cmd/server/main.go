package main

import (
	"context"
	"log"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskpoints/api/handler"
	"github.com/fastygo/taskpoints/internal/config"
	"github.com/fastygo/taskpoints/internal/infrastructure/local"
	"github.com/fastygo/taskpoints/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskpoints/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskpoints/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/taskpoints/internal/infrastructure/sqlite"
	"github.com/fastygo/taskpoints/internal/middleware"
	"github.com/fastygo/taskpoints/internal/router"
	"github.com/fastygo/taskpoints/internal/services"
	"github.com/fastygo/taskpoints/internal/services/lifecycle"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	"github.com/fastygo/taskpoints/pkg/logger"
	"github.com/fastygo/taskpoints/repository"
	"github.com/fastygo/taskpoints/repository/memory"
	"github.com/fastygo/taskpoints/repository/postgres"
	redisRepo "github.com/fastygo/taskpoints/repository/redis"
	sqliteRepo "github.com/fastygo/taskpoints/repository/sqlite"
	"github.com/fastygo/taskpoints/usecase"
	accountUC "github.com/fastygo/taskpoints/usecase/account"
	"github.com/fastygo/taskpoints/usecase/assistant"
	boardUC "github.com/fastygo/taskpoints/usecase/board"
	catalogUC "github.com/fastygo/taskpoints/usecase/catalog"
	historyUC "github.com/fastygo/taskpoints/usecase/history"
)

const probeTimeout = 3 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		zapLogger.Fatal("catalog error", zap.Error(err))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	localStore, err := local.Open(cfg.Local.Path)
	if err != nil {
		zapLogger.Fatal("failed to open local store", zap.String("path", cfg.Local.Path), zap.Error(err))
	}
	manager.Closer("local_store", localStore)

	checks := []monitor.Check{{Name: "local", Critical: true, Timeout: probeTimeout, Ping: localStore.Ping}}

	// Board storage.
	var boardRepo repository.BoardRepository
	switch cfg.Storage.BoardDriver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		boardRepo = postgres.NewBoardRepository(pool)
		checks = append(checks, monitor.Check{Name: "postgresql", Critical: true, Timeout: probeTimeout, Ping: pool.Ping})
	default:
		zapLogger.Warn("board storage is in memory; data is lost on restart")
		boardRepo = memory.NewBoardStore()
	}

	// Key-value storage, falling back to the local file when Redis is down.
	kv := localStore.KV()
	switch cfg.Storage.KVDriver {
	case config.DriverRedis:
		client, err := redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Warn("redis unavailable, using local key-value store", zap.Error(err))
			break
		}
		manager.Closer("redis", client)
		kv = redisRepo.NewKeyValueStore(client, cfg.Redis.KeyPrefix)
		checks = append(checks, monitor.Check{Name: "redis", Timeout: probeTimeout, Ping: redisPing(client)})
	case config.DriverMemory:
		kv = memory.NewKV()
	}

	// Conversation storage; without it history runs in degraded mode.
	var conversations repository.ConversationRepository
	if db, err := sqliteInfra.Open(cfg.SQLite.Path); err != nil {
		zapLogger.Warn("conversation database unavailable, history is degraded", zap.Error(err))
	} else {
		manager.Closer("sqlite", db)
		conversations = sqliteRepo.NewConversationRepository(db)
		checks = append(checks, monitor.Check{Name: "sqlite", Timeout: probeTimeout, Ping: conversations.Ping})
	}

	mon := monitor.New(10*time.Second, localStore, zapLogger, checks...)
	manager.Run("monitor", mon.Start, func(context.Context) error {
		mon.Stop()
		return nil
	})

	bufferProcessor := services.NewBufferProcessor(
		localStore,
		mon,
		boardRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	manager.Run("buffer_processor", bufferProcessor.Start, func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	boardUseCase := boardUC.New(boardRepo, bufferBridge, zapLogger)
	accountUseCase := accountUC.New(kv, cfg.Account.LoginDelay, zapLogger)
	if err := accountUseCase.Init(appCtx); err != nil {
		zapLogger.Error("failed to load accounts", zap.Error(err))
	}
	if current := accountUseCase.Current(); current != nil {
		if err := boardUseCase.Activate(appCtx, current.ID); err != nil {
			zapLogger.Error("failed to load board", zap.String("user_id", current.ID), zap.Error(err))
		}
	}

	historyStore := historyUC.New(conversations, kv, zapLogger)
	catalogUseCase := catalogUC.New(catalog.StoreItems, boardUseCase, zapLogger)
	assistantClient := assistant.New(assistant.Config{
		APIKey:     cfg.Assistant.APIKey,
		BaseURL:    cfg.Assistant.BaseURL,
		Model:      cfg.Assistant.Model,
		MaxTokens:  cfg.Assistant.MaxTokens,
		MaxRetries: cfg.Assistant.MaxRetries,
		Backoff:    cfg.Assistant.Backoff,
		Timeout:    cfg.Assistant.Timeout,
	}, assistant.NewPersonas(catalog.Personas), zapLogger)

	dispatcher := usecase.NewDispatcher()
	boardUseCase.RegisterCommands(dispatcher)
	zapLogger.Info("assistant operations registered", zap.Strings("actions", dispatcher.Actions()))

	resetter := services.NewResetter(boardUseCase, cfg.Recurring.Interval, zapLogger)
	manager.Run("resetter", resetter.Start, func(ctx context.Context) error {
		resetter.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	chatAdapter := httpcontext.NewAdapter(chatTimeout(cfg.Assistant))

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(accountUseCase, boardUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(accountUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(boardUseCase, ctxAdapter, zapLogger),
		Store:   apiHandler.NewStoreHandler(catalogUseCase, ctxAdapter, zapLogger),
		Chat:    apiHandler.NewChatHandler(assistantClient, historyStore, dispatcher, chatAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, historyStore, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, middleware.RequireSession(accountUseCase, zapLogger))

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func redisPing(client *goRedis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// chatTimeout covers every attempt of the assistant client plus its backoff.
func chatTimeout(cfg config.AssistantConfig) time.Duration {
	attempts := time.Duration(cfg.MaxRetries + 1)
	backoff := cfg.Backoff * attempts * (attempts - 1) / 2
	return cfg.Timeout*attempts + backoff + 5*time.Second
}
