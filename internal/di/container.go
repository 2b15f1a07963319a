package di

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/platform/config"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/platform/jobs"
	"github.com/torunhut/api/internal/platform/sheets"
	"github.com/torunhut/api/internal/platform/storage"
	fsrepo "github.com/torunhut/api/internal/repositories/firestore"
	"github.com/torunhut/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Cart     services.CartService
	Catalog  services.CatalogService
	Orders   services.OrderService
	Users    services.UserService
	Settings services.SettingsService
	Stats    services.StatsService
}

// Container wires repositories, services, and external sinks for runtime use.
// Optional integrations (spreadsheet export, order events, image uploads) are
// nil when their configuration is absent; the API degrades rather than fails.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	Provider *pfirestore.Provider
	Registry *fsrepo.Registry
	Services Services

	// Exporter doubles as the checkout sink and the backfill entrypoint.
	Exporter  *services.ExportService
	Publisher *jobs.PubSubOrderPublisher
	Uploader  *storage.Uploader

	pubsubClient  *pubsub.Client
	pubsubTopic   *pubsub.Topic
	storageClient *gcs.Client
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := fsrepo.NewRegistry(provider)
	if err != nil {
		return nil, fmt.Errorf("di: build registry: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
		Registry: registry,
	}

	if err := c.buildSinks(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if err := c.buildServices(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// buildSinks dials the optional external integrations. Missing configuration
// disables a sink; a dial error for configured ones is fatal.
func (c *Container) buildSinks(ctx context.Context) error {
	cfg := c.Config

	if strings.TrimSpace(cfg.Sheets.SpreadsheetID) != "" {
		sheet, err := sheets.NewClient(ctx, cfg.Sheets)
		if err != nil {
			return fmt.Errorf("di: sheets client: %w", err)
		}
		exporter, err := services.NewExportService(services.ExportServiceDeps{
			Sheet:     sheet,
			Orders:    c.Registry.Orders(),
			BatchSize: cfg.Checkout.ExportBatchSize,
			Logger:    zapEventLogger(c.Logger),
		})
		if err != nil {
			return fmt.Errorf("di: export service: %w", err)
		}
		c.Exporter = exporter
	} else {
		c.Logger.Info("order spreadsheet export disabled: no spreadsheet configured")
	}

	if strings.TrimSpace(cfg.PubSub.Topic) != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("di: pubsub client: %w", err)
		}
		c.pubsubClient = client
		c.pubsubTopic = client.Topic(cfg.PubSub.Topic)
		publisher, err := jobs.NewPubSubOrderPublisher(c.pubsubTopic)
		if err != nil {
			return fmt.Errorf("di: order publisher: %w", err)
		}
		c.Publisher = publisher
	} else {
		c.Logger.Info("order event publishing disabled: no topic configured")
	}

	if strings.TrimSpace(cfg.Storage.ImagesBucket) != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("di: storage client: %w", err)
		}
		c.storageClient = client
		uploader, err := storage.NewUploader(client, cfg.Storage.ImagesBucket, cfg.Storage.PublicURLPrefix)
		if err != nil {
			return fmt.Errorf("di: uploader: %w", err)
		}
		c.Uploader = uploader
	} else {
		c.Logger.Info("product image uploads disabled: no bucket configured")
	}

	return nil
}

func (c *Container) buildServices() error {
	cfg := c.Config
	logFn := zapEventLogger(c.Logger)

	pricing, err := services.NewPricingEngine(services.PricingEngineDeps{
		DeliveryRates: domain.DeliveryRates{
			Local:    cfg.Delivery.LocalCharge,
			National: cfg.Delivery.NationalCharge,
		},
	})
	if err != nil {
		return fmt.Errorf("di: pricing engine: %w", err)
	}

	settingsSvc, err := services.NewSettingsService(services.SettingsServiceDeps{
		Settings: c.Registry.Settings(),
		Defaults: domain.Settings{
			LocalDeliveryCharge:    cfg.Delivery.LocalCharge,
			NationalDeliveryCharge: cfg.Delivery.NationalCharge,
			PreorderEnabled:        true,
		},
		Logger: logFn,
	})
	if err != nil {
		return fmt.Errorf("di: settings service: %w", err)
	}

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:    c.Registry.Carts(),
		Products: c.Registry.Products(),
		Pricing:  pricing,
		Settings: settingsSvc,
		Logger:   logFn,
	})
	if err != nil {
		return fmt.Errorf("di: cart service: %w", err)
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: c.Registry.Products(),
		Logger:   logFn,
	})
	if err != nil {
		return fmt.Errorf("di: catalog service: %w", err)
	}

	orderDeps := services.OrderServiceDeps{
		Orders:          c.Registry.Orders(),
		Products:        c.Registry.Products(),
		Carts:           c.Registry.Carts(),
		Pricing:         pricing,
		Settings:        settingsSvc,
		ShortIDAttempts: cfg.Checkout.ShortIDAttempts,
		Logger:          logFn,
	}
	if c.Exporter != nil {
		orderDeps.Exporter = c.Exporter
	}
	if c.Publisher != nil {
		orderDeps.Events = c.Publisher
	}
	orderSvc, err := services.NewOrderService(orderDeps)
	if err != nil {
		return fmt.Errorf("di: order service: %w", err)
	}

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:  c.Registry.Users(),
		Logger: logFn,
	})
	if err != nil {
		return fmt.Errorf("di: user service: %w", err)
	}

	statsSvc, err := services.NewStatsService(services.StatsServiceDeps{
		Orders:   c.Registry.Orders(),
		Products: c.Registry.Products(),
		Users:    c.Registry.Users(),
	})
	if err != nil {
		return fmt.Errorf("di: stats service: %w", err)
	}

	c.Services = Services{
		Cart:     cartSvc,
		Catalog:  catalogSvc,
		Orders:   orderSvc,
		Users:    userSvc,
		Settings: settingsSvc,
		Stats:    statsSvc,
	}
	return nil
}

// Close releases the Firestore, Pub/Sub and Storage clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.pubsubTopic != nil {
		c.pubsubTopic.Stop()
	}
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.storageClient != nil {
		if err := c.storageClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Registry != nil {
		if err := c.Registry.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zfields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zfields = append(zfields, zap.Any(key, value))
		}
		logger.Info(event, zfields...)
	}
}
