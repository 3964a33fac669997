// Package di assembles the runtime dependency graph: storage registry,
// event publishing, workflow services, and readiness probes.
package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	eventspubsub "github.com/craftmarket/api/internal/events/pubsub"
	"github.com/craftmarket/api/internal/platform/config"
	pfirestore "github.com/craftmarket/api/internal/platform/firestore"
	"github.com/craftmarket/api/internal/repositories"
	firestorerepo "github.com/craftmarket/api/internal/repositories/firestore"
	"github.com/craftmarket/api/internal/repositories/memory"
	"github.com/craftmarket/api/internal/services"
)

// Services bundles the workflow services the handlers rely upon.
type Services struct {
	Baskets services.BasketService
	Orders  services.OrderService
}

// Container wires repositories, services, and supporting infrastructure for
// runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
	Health       *repositories.HealthChecker

	closers []func(context.Context) error
}

// NewContainer constructs the runtime dependencies according to the
// configured storage driver and feature flags.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{Config: cfg}

	registry, probes, err := c.buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	c.Repositories = registry

	publisher, pubsubProbe, err := c.buildPublisher(ctx, cfg)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if pubsubProbe != nil {
		probes = append(probes, *pubsubProbe)
	}

	checker, err := repositories.NewHealthChecker(probes)
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("build health checker: %w", err)
	}
	c.Health = checker

	basketSvc, err := services.NewBasketService(services.BasketServiceDeps{
		Baskets: registry.Baskets(),
		Catalog: registry.Catalog(),
		Clock:   time.Now,
		Logger:  eventLogger(logger.Named("basket")),
	})
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("build basket service: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Baskets:    registry.Baskets(),
		Orders:     registry.Orders(),
		Catalog:    registry.Catalog(),
		UnitOfWork: registry,
		Publisher:  publisher,
		Clock:      time.Now,
		Logger:     eventLogger(logger.Named("order")),
	})
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("build order service: %w", err)
	}

	c.Services = Services{Baskets: basketSvc, Orders: orderSvc}
	return c, nil
}

// Close releases the registry and any messaging clients in reverse
// construction order.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Container) buildRegistry(cfg config.Config) (repositories.Registry, []repositories.HealthProbe, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		registry, err := firestorerepo.NewRegistry(provider)
		if err != nil {
			return nil, nil, fmt.Errorf("build firestore registry: %w", err)
		}
		probe := repositories.HealthProbe{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				client, err := provider.Client(ctx)
				if err != nil {
					return err
				}
				iter := client.Collections(ctx)
				if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
					return err
				}
				return nil
			},
		}
		return registry, []repositories.HealthProbe{probe}, nil

	case config.StorageDriverMemory:
		probe := repositories.HealthProbe{
			Name:  "memory",
			Check: func(ctx context.Context) error { return ctx.Err() },
		}
		return memory.NewRegistry(), []repositories.HealthProbe{probe}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func (c *Container) buildPublisher(ctx context.Context, cfg config.Config) (services.OrderEventPublisher, *repositories.HealthProbe, error) {
	if !cfg.Features.EnableOrderEvents {
		return nil, nil, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("build pubsub client: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })

	topic := client.Topic(cfg.PubSub.OrdersTopic)
	c.closers = append(c.closers, func(context.Context) error {
		topic.Stop()
		return nil
	})

	publisher, err := eventspubsub.NewOrderEventPublisher(topic)
	if err != nil {
		return nil, nil, fmt.Errorf("build order event publisher: %w", err)
	}

	probe := repositories.HealthProbe{
		Name: "pubsub",
		Check: func(ctx context.Context) error {
			exists, err := topic.Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("topic %q does not exist", cfg.PubSub.OrdersTopic)
			}
			return nil
		},
	}
	return publisher, &probe, nil
}

func eventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info("service event", zFields...)
	}
}
