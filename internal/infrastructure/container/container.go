package container

import (
	"context"
	"fmt"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/delivery/http"
	"github.com/detour-app/detour-backend/internal/delivery/http/handler"
	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/infrastructure/database"
	"github.com/detour-app/detour-backend/internal/infrastructure/realtime"
	"github.com/detour-app/detour-backend/internal/infrastructure/server"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/detour-app/detour-backend/internal/repository/memory"
	"github.com/detour-app/detour-backend/internal/repository/postgres"
	"github.com/detour-app/detour-backend/internal/usecase/account"
	"github.com/detour-app/detour-backend/internal/usecase/block"
	"github.com/detour-app/detour-backend/internal/usecase/chat"
	"github.com/detour-app/detour-backend/internal/usecase/feed"
	"github.com/detour-app/detour-backend/internal/usecase/help"
	"github.com/detour-app/detour-backend/internal/usecase/swipe"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	DB         *sqlx.DB
	Redis      *redis.Client
	Server     *server.Server
	Hub        *realtime.Hub
	Queue      notification.Queue
	Dispatcher *notification.Dispatcher
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	repos, err := c.initRepositories(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Redis.Host != "" {
		c.Redis, err = database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	// Realtime hub relays through Redis pub/sub when available
	c.Hub = realtime.NewHub(c.Redis)

	switch cfg.Notification.Queue {
	case "redis":
		c.Queue = notification.NewRedisQueue(c.Redis, cfg.Notification.QueueSize)
	default:
		c.Queue = notification.NewMemoryQueue(cfg.Notification.QueueSize)
	}

	sinks := []notification.Sink{notification.NewRealtimeSink(c.Hub)}
	if cfg.APNs.KeyPath != "" {
		apns, err := notification.NewAPNsSink(&cfg.APNs, repos.Users)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize APNs: %w", err)
		}
		sinks = append(sinks, apns)
	} else {
		log.Warn().Msg("APNS_KEY_PATH not set, push notifications disabled")
	}
	c.Dispatcher = notification.NewDispatcher(c.Queue, cfg.Notification.Workers, sinks...)

	// Initialize use cases
	accountUseCase := account.NewAccountUseCase(repos)
	feedUseCase := feed.NewFeedUseCase(repos)
	swipeUseCase := swipe.NewSwipeUseCase(repos, c.Queue)
	chatUseCase := chat.NewChatUseCase(repos, c.Queue)
	blockUseCase := block.NewBlockUseCase(repos)
	helpUseCase := help.NewHelpUseCase(repos, c.Queue)

	// Initialize middleware
	verifier := middleware.NewTokenVerifier(&cfg.JWT)
	authMiddleware := middleware.NewAuthMiddleware(verifier, accountUseCase)

	// Initialize router
	router := http.NewRouter(
		handler.NewAccountHandler(accountUseCase),
		handler.NewFeedHandler(feedUseCase),
		handler.NewSwipeHandler(swipeUseCase),
		handler.NewChatHandler(chatUseCase),
		handler.NewBlockHandler(blockUseCase),
		handler.NewHelpHandler(helpUseCase),
		handler.NewWSHandler(c.Hub, verifier, accountUseCase),
		authMiddleware,
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup())
	return c, nil
}

func (c *Container) initRepositories(ctx context.Context) (*repository.Repositories, error) {
	if c.Config.Storage.Type == "memory" {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return memory.NewStore().Repositories(), nil
	}

	db, err := database.NewPostgresDB(&c.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	if err := database.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return postgres.NewRepositories(db), nil
}

// Start runs the background workers; they stop when ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run()
	c.Dispatcher.Start(ctx)
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing notification queue")
		}
	}
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
