package main

import (
	"context"
	"fmt"

	"xstream/internal/config"
	"xstream/internal/store"
	"xstream/internal/store/postgres"
	"xstream/internal/store/sqlite"
)

const configPath = "xstream.yaml"

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.New(ctx, cfg.Database.DSN)
	case "sqlite":
		return sqlite.New(ctx, cfg.Database.DSN)
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
}
