// Package store persists the last observed fuel state of every structure between runs.
package store

import (
	"context"
	"fmt"

	"fuelbot/internal/config"
	"fuelbot/internal/db"
	"fuelbot/internal/models"
)

// Store reads and replaces the whole state snapshot. Write must be all-or-nothing.
type Store interface {
	Read(ctx context.Context) (map[int64]models.FuelState, error)
	Write(ctx context.Context, states map[int64]models.FuelState) error
	Close() error
}

// Open returns the Store selected by the driver setting.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "", "file":
		return OpenFile(cfg.StateFile)
	case "postgres":
		return db.New(ctx, cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
