package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appsvc "yyss-assistant/internal/app"
	"yyss-assistant/internal/cache"
	"yyss-assistant/internal/config"
	"yyss-assistant/internal/model"
	"yyss-assistant/internal/platform/logger"
	mysqlClient "yyss-assistant/internal/platform/mysql"
	rabbitmqClient "yyss-assistant/internal/platform/rabbitmq"
	redisClient "yyss-assistant/internal/platform/redis"
	sqliteClient "yyss-assistant/internal/platform/sqlite"
	"yyss-assistant/internal/repository"
	"yyss-assistant/internal/worker"
)

type App struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	ArchiveWorker    *worker.ArchiveWorker
	ArchivePublisher *rabbitmqClient.ArchivePublisher

	AuthService      *appsvc.AuthService
	AssistantService *appsvc.AssistantService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig opens every dependency named by cfg. Redis and the
// transcript archive are optional.
func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	for _, warning := range cfg.Warnings() {
		log.Warn("config warning", "detail", warning)
	}

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := db.AutoMigrate(&model.User{}, &model.AssistantSession{}, &model.ArchivedTurn{}); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var limiter appsvc.TurnLimiter
	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	switch {
	case err != nil:
		log.Warn("redis unavailable, rate limiting disabled", "addr", cfg.Redis.Addr, "error", err)
	case redisCli != nil:
		a.Redis = redisCli
		limiter = cache.NewRateLimiter(
			redisCli,
			cfg.Redis.RateLimitPerMinute,
			time.Duration(cfg.Redis.RateLimitWindowSecs)*time.Second,
		)
	}

	var archive appsvc.TurnArchive
	if cfg.RabbitMQ.ArchiveEnabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.MQConn = mqConn

		turnRepo := repository.NewArchivedTurnRepository(db)
		a.ArchiveWorker = worker.NewArchiveWorker(mqConn, turnRepo, cfg.RabbitMQ.ArchiveQueue, log)
		if err := a.ArchiveWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start archive worker failed: %w", err)
		}
		a.ArchivePublisher = rabbitmqClient.NewArchivePublisher(mqConn, cfg.RabbitMQ.ArchiveQueue)
		archive = a.ArchivePublisher
	}

	a.AuthService = appsvc.NewAuthService(
		repository.NewUserRepository(db),
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	registry := appsvc.NewSessionRegistry(SessionFactory(cfg), cfg.SessionIdleTimeout())
	a.AssistantService = appsvc.NewAssistantService(
		repository.NewAssistantSessionRepository(db),
		registry,
		archive,
		limiter,
		cfg.MaxUploadBytes(),
		log.With("component", "assistant"),
	)

	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite":
		return sqliteClient.New(ctx, cfg.Database.SQLitePath)
	case "mysql", "":
		return mysqlClient.New(ctx, cfg.MySQLDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ArchivePublisher != nil {
		if err := a.ArchivePublisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ArchiveWorker != nil {
		a.ArchiveWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		a.Logger.Sync()
	}
	return closeErr
}
