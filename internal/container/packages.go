package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/breaker"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/events"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/handlers"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/health"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/history"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/messaging"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/middleware"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/ratelimit"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const historyConsumerGroup = "state-history"

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// PublisherPackage provides the operational event publisher. It
// uses Redis Streams when the shared store is configured so the
// history consumer in another process can see the events, and an
// in-process channel transport otherwise.
func PublisherPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*events.Publisher, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		wmLogger := watermill.NewStdLogger(false, false)

		if opts.StateStoreURL != "" && opts.StateStoreToken != "" {
			client, err := state.NewRedisClient(opts.StateStoreURL, opts.StateStoreToken)
			if err == nil {
				pub, perr := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wmLogger)
				if perr == nil {
					return events.NewPublisher(pub), nil
				}

				err = perr
			}

			logger.Warn("falling back to in-process event transport", zap.Error(err))
		}

		return events.NewPublisher(gochannel.NewGoChannel(gochannel.Config{}, wmLogger)), nil
	})
}

// StatePackage provides the state facade, wired to publish
// availability transitions with this process's instance id.
func StatePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*state.Facade, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		publisher := do.MustInvoke[*events.Publisher](i)

		generate, err := nanoid.Standard(12)
		if err != nil {
			return nil, fmt.Errorf("create instance id generator: %w", err)
		}

		instance := generate()

		facade := state.NewFacade(state.Config{
			URL:             opts.StateStoreURL,
			Token:           opts.StateStoreToken,
			RecheckInterval: time.Duration(opts.RecheckSeconds) * time.Second,
			SweepInterval:   time.Duration(opts.SweepSeconds) * time.Second,
			Instance:        instance,
			OnTransition: func(available bool, operation, reason string) {
				mode := state.ModeMemory
				if available {
					mode = state.ModeShared
				}

				event := &events.AvailabilityEvent{
					Instance:   instance,
					Available:  available,
					Mode:       mode,
					Operation:  operation,
					Reason:     reason,
					OccurredAt: time.Now(),
				}

				if err := publisher.PublishAvailability(event); err != nil {
					logger.Warn("failed to publish availability event", zap.Error(err))
				}
			},
		}, logger)

		return facade, nil
	})
}

// RateLimitPackage provides the fixed-window rate limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		facade := do.MustInvoke[*state.Facade](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return ratelimit.NewLimiter(facade, state.SystemClock(), logger), nil
	})
}

// BreakerPackage provides the circuit breaker, wired to publish state
// transitions.
func BreakerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*breaker.Breaker, error) {
		facade := do.MustInvoke[*state.Facade](i)
		logger := do.MustInvoke[*zap.Logger](i)
		publisher := do.MustInvoke[*events.Publisher](i)
		instance := facade.Status().Instance

		onTransition := func(service string, from, to breaker.Status, failureCount int) {
			event := &events.BreakerTransitionEvent{
				Instance:     instance,
				Service:      service,
				From:         from.String(),
				To:           to.String(),
				FailureCount: failureCount,
				OccurredAt:   time.Now(),
			}

			if err := publisher.PublishBreakerTransition(event); err != nil {
				logger.Warn("failed to publish breaker transition event", zap.Error(err))
			}
		}

		return breaker.New(facade, state.SystemClock(), logger, onTransition), nil
	})
}

// HTTPPackage provides the router and API with middleware and routes
// registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		facade := do.MustInvoke[*state.Facade](i)
		limiter := do.MustInvoke[*ratelimit.Limiter](i)
		circuit := do.MustInvoke[*breaker.Breaker](i)

		api := humachi.New(router, huma.DefaultConfig("Resilient State Service", "1.0.0"))

		defaultWindow := time.Duration(opts.DefaultWindowSeconds) * time.Second
		api.UseMiddleware(middleware.RateLimiter(api, limiter, opts.DefaultLimit, defaultWindow, logger))

		handlers.RegisterRoutes(api,
			handlers.NewRateLimitHandler(limiter, logger),
			handlers.NewBreakerHandler(circuit, state.SystemClock()),
			handlers.NewKVHandler(facade))
		health.RegisterRoutes(api, health.NewHandler(facade))

		return api, nil
	})
}

// HistoryStorePackage provides the transition history store: postgres
// when a database is configured, a logging no-op otherwise.
func HistoryStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (history.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			logger.Info("no history database configured, logging transition events only")

			return history.NewNoopStore(logger), nil
		}

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect history database: %w", err)
		}

		return history.NewPostgresStore(pool), nil
	})
}

// ConsumerGroupPackage provides the consumer group that persists
// transition events. It requires the shared store, since that is the
// transport the events travel over between processes.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		store := do.MustInvoke[history.Store](i)

		if opts.StateStoreURL == "" || opts.StateStoreToken == "" {
			return nil, fmt.Errorf("history consumer requires the shared state store to be configured")
		}

		client, err := state.NewRedisClient(opts.StateStoreURL, opts.StateStoreToken)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: historyConsumerGroup,
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, events.TopicAvailability,
			history.NewAvailabilityHandler(store), logger))
		group.Add(messaging.NewConsumer(subscriber, events.TopicBreakerTransition,
			history.NewBreakerTransitionHandler(store), logger))

		return group, nil
	})
}
