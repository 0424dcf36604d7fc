package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appsvc "studykwork/internal/app"
	"studykwork/internal/config"
	"studykwork/internal/platform/database"
	rabbitmqClient "studykwork/internal/platform/rabbitmq"
	redisClient "studykwork/internal/platform/redis"
	"studykwork/internal/repository"
	"studykwork/internal/storage"
	"studykwork/internal/worker"
)

// App holds the process-wide resources. Redis and MQConn stay nil when not configured.
type App struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Images        *storage.LocalStore
	CleanupWorker *worker.ImageCleanupWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := repository.Migrate(db); err != nil {
		_ = a.Close()
		return nil, err
	}

	images, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxFileBytes)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Images = images

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Redis = redisCli
	} else {
		slog.Info("redis not configured, listing cache disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ListingEventQueue)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.MQConn = mqConn

		cleanup := worker.NewImageCleanupWorker(mqConn, images, cfg.RabbitMQ.ListingEventQueue)
		if err := cleanup.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start image cleanup worker failed: %w", err)
		}
		a.CleanupWorker = cleanup
	} else {
		slog.Info("rabbitmq not configured, listing events disabled")
	}

	if cfg.App.SeedDemo {
		err := appsvc.SeedDemo(ctx,
			repository.NewUserRepository(db),
			repository.NewListingRepository(db),
			cfg.App.University,
		)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seed demo data failed: %w", err)
		}
	}

	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case database.DriverMySQL:
		return database.New(ctx, database.DriverMySQL, cfg.MySQLDSN())
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir failed: %w", err)
		}
		return database.New(ctx, database.DriverSQLite, cfg.SQLiteDSN())
	}
}

func (a *App) Close() error {
	var errs []error
	if a.CleanupWorker != nil {
		a.CleanupWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
