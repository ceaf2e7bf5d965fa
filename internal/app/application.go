// Package app ties the bot's services together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/greenloop/ecobot/internal/app/httpapi"
	"github.com/greenloop/ecobot/internal/app/services/vision"
	walletsvc "github.com/greenloop/ecobot/internal/app/services/wallet"
	"github.com/greenloop/ecobot/internal/app/storage"
	"github.com/greenloop/ecobot/internal/app/storage/postgres"
	"github.com/greenloop/ecobot/internal/app/storage/redisstore"
	"github.com/greenloop/ecobot/internal/config"
	"github.com/greenloop/ecobot/internal/discord"
	"github.com/greenloop/ecobot/internal/logging"
	"github.com/greenloop/ecobot/internal/metrics"
	"github.com/greenloop/ecobot/internal/middleware"
)

// Application holds the wired service graph. Dependencies are injected at
// construction; nothing here is a package-level singleton.
type Application struct {
	Config  *config.Config
	Catalog config.Catalog
	Metrics *metrics.Metrics
	Wallet  *walletsvc.Service
	Discord *discord.Client
	Vision  *vision.Service
	Handler *httpapi.Handler

	log   *logging.Logger
	store storage.BalanceStore
}

// New builds a fully initialised application from configuration.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.New("app")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog := config.LoadCatalogOrDefault(cfg.CatalogPath)
	m := metrics.New()
	walletService := walletsvc.New(store, log)

	discordClient := discord.NewClient(discord.ClientConfig{
		BaseURL:  cfg.DiscordAPIURL,
		BotToken: cfg.BotToken,
		Timeout:  cfg.HTTPTimeout,
	}, log)

	visionService := vision.NewService(vision.Config{
		Endpoint: cfg.OpenAIAPIURL,
		APIKey:   cfg.OpenAIAPIKey,
		Model:    cfg.OpenAIModel,
		Timeout:  cfg.HTTPTimeout,
	}, log)

	handler := httpapi.NewHandler(cfg.PublicKey, catalog, walletService, discordClient, visionService, m, log)

	return &Application{
		Config:  cfg,
		Catalog: catalog,
		Metrics: m,
		Wallet:  walletService,
		Discord: discordClient,
		Vision:  visionService,
		Handler: handler,
		log:     log,
		store:   store,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.BalanceStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case config.BackendRedis:
		store, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// Router builds the HTTP surface with its middleware chain.
func (a *Application) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Tracing(a.log))
	router.Use(middleware.Metrics("ecobot", a.Metrics))
	router.Use(middleware.CORS)

	router.HandleFunc("/interactions", a.Handler.Interactions).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/healthz", a.Handler.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", a.Metrics.Handler()).Methods(http.MethodGet)
	return router
}

// Close releases held resources.
func (a *Application) Close() error {
	if closer, ok := a.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
