package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"codeberg.org/qemxa/server/internal/auth"
	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/logger"
	"codeberg.org/qemxa/server/internal/storage"
)

// in-flight entries older than this are treated as abandoned
const fallbackGuardTTL = 5 * time.Minute

// creates and configures all service clients. the chat service is wired
// to the hub so every turn reaches websocket subscribers.
func InitializeServices(ctx context.Context, cfg *config.Config, publisher chat.Publisher) (*Services, error) {
	authn, err := auth.New(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	services := &Services{Store: store, Auth: authn, closers: []io.Closer{store}}

	guardTTL := fallbackGuardTTL
	if cfg.GenerationTimeout > 0 {
		guardTTL = cfg.GenerationTimeout + cfg.PersistTimeout + 5*time.Second
	}

	if cfg.RedisURL != "" {
		guard, err := chat.NewRedisGuardFromURL(cfg.RedisURL, guardTTL)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to initialize redis guard: %w", err)
		}

		services.Guard = guard
		services.Redis = guard.Client()
		services.closers = append(services.closers, guard)
	} else {
		guard := chat.NewMemoryGuard(guardTTL)
		services.Guard = guard
		services.closers = append(services.closers, guard)
	}

	generator, err := llm.NewGenerator(ctx)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	logger.Info("generator ready", "model", generator.Model())

	services.Generator = generator

	reconciler := chat.NewReconciler(generator, store, publisher, services.Guard, chat.Options{
		GenerationTimeout: cfg.GenerationTimeout,
		PersistTimeout:    cfg.PersistTimeout,
	})

	services.Chat = chat.NewService(store, reconciler)

	return services, nil
}

// releases everything in reverse order of creation
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			logger.ErrorErr(err, "failed to close service")
		}
	}
}
