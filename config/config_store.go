package config

import (
	"context"

	"github.com/lettera/lettera/pkg/store/postgres"
)

func (cfg *Config) registerStore(file *configFile) error {
	if file.Store == nil || file.Store.URL == "" {
		return nil
	}

	store, err := postgres.New(context.Background(), file.Store.URL)

	if err != nil {
		return err
	}

	if err := store.Migrate(context.Background()); err != nil {
		return err
	}

	cfg.Store = store

	return nil
}
