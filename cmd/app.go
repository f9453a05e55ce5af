package main

import (
	"context"
	"fmt"
	"io"

	"fuelbot/internal/config"
	"fuelbot/internal/esi"
	"fuelbot/internal/logging"
	"fuelbot/internal/notification"
	"fuelbot/internal/providers"
	"fuelbot/internal/store"
)

// app holds everything a fuel check needs. close releases it in reverse order.
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	svc     *notification.Service
	closers []io.Closer
}

func newApp(ctx context.Context, args []string) (*app, error) {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger, err := logging.New(cfg.Logging.Dir, level)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	if t := cfg.Thresholds(); t.Inverted() {
		logger.Warnf("danger_days (%v) is above warning_days (%v); the warning band is empty", t.DangerDays, t.WarningDays)
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	a.closers = append(a.closers, st)

	notifiers, err := providers.FromConfig(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	for _, n := range notifiers {
		if c, ok := n.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	client := esi.New(ctx, cfg)
	a.svc = notification.New(client, client, st, notifiers, logger, cfg)
	logger.Infof("fuelbot %s ready: store=%s channels=%v systems=%v", version, cfg.Store.Driver, cfg.Channels(), cfg.Systems)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Errorf("Close failed: %v", err)
		}
	}
	a.logger.Close()
}
