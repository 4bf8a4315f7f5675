package di

import (
	"context"
	"os"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/chat"
	"ai-chat-console/backend/internal/store"
	"ai-chat-console/backend/pkg/config"
	"ai-chat-console/backend/pkg/logger"
	"ai-chat-console/backend/pkg/observability"
	"ai-chat-console/backend/pkg/secrets"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Logger     *logger.Logger
	Store      store.MessageStore
	Gateway    ai.Gateway
	Controller *chat.Controller
	Metrics    *observability.Metrics
}

// New wires the networked message store, the inference gateway and the
// conversation controller for the server.
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger, metrics *observability.Metrics) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}

	var messageStore store.MessageStore = store.NewGormStore(db)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = store.NewRedisClient(cfg.Redis.URL)
		messageStore = store.NewCachedStore(messageStore, redisClient, cfg.Redis.TTL, log)
	}

	gateway, err := NewGateway(cfg, log)
	if err != nil {
		return nil, err
	}

	controller := chat.New(messageStore, gateway, log, cfg.Inference.MaxTokens).
		WithMetrics(metrics)

	return &Container{
		DB:         db,
		Redis:      redisClient,
		Logger:     log,
		Store:      messageStore,
		Gateway:    gateway,
		Controller: controller,
		Metrics:    metrics,
	}, nil
}

// NewGateway builds the configured inference gateway implementation.
func NewGateway(cfg *config.Config, log *logger.Logger) (ai.Gateway, error) {
	if err := secrets.Init(log); err != nil {
		return nil, err
	}

	apiKey := secrets.GetSecretWithDefault(
		context.Background(),
		cfg.Inference.APIKeySecret,
		os.Getenv("INFERENCE_API_KEY"),
	)

	if cfg.Inference.Provider == "openai" {
		return ai.NewOpenAIGateway(apiKey, cfg.Inference.BaseURL), nil
	}
	return ai.NewHTTPGateway(cfg.Inference.BaseURL, apiKey, cfg.Inference.Timeout), nil
}
