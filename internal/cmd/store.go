package cmd

import (
	"context"
	"errors"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core/store"
)

func openStore(ctx context.Context) (*store.Store, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
