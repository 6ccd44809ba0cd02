package storage

import (
	"context"

	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/logger"
)

// opens the store selected by STORE_DRIVER
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.StoreDriver == config.StoreBolt {
		logger.Info("using embedded store", "path", cfg.BoltPath)

		gateway, err := NewBoltGateway(cfg.BoltPath)
		if err != nil {
			return nil, err
		}

		return gateway, nil
	}

	gateway, err := NewPostgresGateway(ctx, cfg.SupabaseConnString)
	if err != nil {
		return nil, err
	}

	return gateway, nil
}
