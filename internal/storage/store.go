// Package storage provides the durable catalog.Store backends and the
// diagnostic dump sinks.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/catalogsync/internal/catalog"
	"github.com/IshaanNene/catalogsync/internal/config"
)

// Open builds the catalog store selected by cfg.Type. With AutoSchema set,
// tables or indexes are created before the store is returned.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (catalog.Store, error) {
	switch cfg.Type {
	case "memory":
		return catalog.NewMemoryStore(), nil

	case "postgres":
		s, err := OpenPostgres(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil

	case "mongodb":
		s, err := OpenMongo(ctx, cfg.DSN, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoSchema {
			if err := s.EnsureIndexes(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
