// Package notification runs one fuel check: fetch, filter, classify, diff, notify, persist.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fuelbot/internal/config"
	"fuelbot/internal/fuel"
	"fuelbot/internal/logging"
	"fuelbot/internal/models"
	"fuelbot/internal/store"
)

// ErrRunInProgress is returned when a run is requested while another is still going.
var ErrRunInProgress = errors.New("a fuel check is already running")

// StructureSource lists the monitored structures and their public names.
type StructureSource interface {
	ListStructures(ctx context.Context) ([]models.Structure, error)
	StructureName(ctx context.Context, id int64) (string, error)
}

// LocationResolver turns solar system names into IDs.
type LocationResolver interface {
	ResolveSystemIDs(ctx context.Context, names []string) ([]int64, error)
}

// Notifier delivers one run's notification to a channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// RunResult describes what a run observed and reported.
type RunResult struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Listed    int            `json:"listed"`
	Evaluated int            `json:"evaluated"`
	Changed   int            `json:"changed"`
	Notified  bool           `json:"notified"`
	Panic     bool           `json:"panic"`
	Alerts    []models.Alert `json:"alerts"`
	Duration  time.Duration  `json:"duration"`
}

// Service processes fuel checks. Runs never overlap.
type Service struct {
	source     StructureSource
	resolver   LocationResolver
	store      store.Store
	notifiers  []Notifier
	logger     *logging.Logger
	thresholds fuel.Thresholds
	systems    []string
	now        func() time.Time

	running sync.Mutex

	mu        sync.RWMutex
	last      *RunResult
	listeners []func(RunResult)
}

// New constructs a notification Service.
func New(source StructureSource, resolver LocationResolver, st store.Store, notifiers []Notifier, logger *logging.Logger, cfg config.Config) *Service {
	return &Service{
		source:     source,
		resolver:   resolver,
		store:      st,
		notifiers:  notifiers,
		logger:     logger,
		thresholds: cfg.Thresholds(),
		systems:    cfg.Systems,
		now:        time.Now,
	}
}

// Logger exposes the Service's logger.
func (s *Service) Logger() *logging.Logger {
	return s.logger
}

// Store exposes the state store for read-only status queries.
func (s *Service) Store() store.Store {
	return s.store
}

// OnRun registers fn to be called after every completed run.
func (s *Service) OnRun(fn func(RunResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// LastRun returns the result of the most recent completed run, if any.
func (s *Service) LastRun() (RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return RunResult{}, false
	}
	return *s.last, true
}

// Run performs one fuel check. Any failure of an external call aborts the run.
// Channels are notified before the store is written: a failed write after a successful send
// re-reports the same changes next run, a failed send loses nothing.
// OnRun listeners are called once the run has released its lock.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	res, err := s.run(ctx)
	if err != nil {
		return res, err
	}
	s.finish(res)
	return res, nil
}

func (s *Service) run(ctx context.Context) (RunResult, error) {
	if !s.running.TryLock() {
		return RunResult{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	now := s.now()
	res := RunResult{RunID: uuid.NewString(), StartedAt: now}
	log := s.logger.WithRun(res.RunID)

	prior, err := s.store.Read(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read state: %w", err)
	}

	structures, err := s.source.ListStructures(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list structures: %w", err)
	}
	res.Listed = len(structures)

	if len(s.systems) > 0 {
		ids, err := s.resolver.ResolveSystemIDs(ctx, s.systems)
		if err != nil {
			return res, fmt.Errorf("failed to resolve systems: %w", err)
		}
		structures = fuel.FilterBySystem(structures, fuel.NewSystemSet(ids))
		log.Debugf("%d of %d structures are in %v", len(structures), res.Listed, s.systems)
	}
	fuel.SortByFuelExpiry(structures)

	for i := range structures {
		name, err := s.source.StructureName(ctx, structures[i].ID)
		if err != nil {
			return res, fmt.Errorf("failed to get name of structure %d: %w", structures[i].ID, err)
		}
		structures[i].Name = name
	}

	evaluated := fuel.Evaluate(structures, now, s.thresholds)
	res.Evaluated = len(evaluated)

	changed := fuel.DetectChanges(evaluated, prior)
	res.Changed = len(changed)
	res.Alerts, res.Panic = fuel.BuildAlerts(changed)

	if len(res.Alerts) > 0 {
		n := models.Notification{
			RunID:   res.RunID,
			Summary: fuel.SummaryText,
			Alerts:  res.Alerts,
			Panic:   res.Panic,
			SentAt:  now,
		}
		for _, notifier := range s.notifiers {
			if err := notifier.Send(ctx, n); err != nil {
				log.Errorf("Dispatch error via %s: %v", notifier.Name(), err)
				return res, fmt.Errorf("failed to notify via %s: %w", notifier.Name(), err)
			}
			log.Infof("Dispatched %d alerts via %s (panic=%t)", len(res.Alerts), notifier.Name(), res.Panic)
		}
		res.Notified = true
	} else {
		log.Infof("No fuel state changes across %d structures", res.Evaluated)
	}

	if err := s.store.Write(ctx, fuel.MergeStates(prior, evaluated)); err != nil {
		return res, fmt.Errorf("failed to write state: %w", err)
	}

	res.Duration = s.now().Sub(now)
	return res, nil
}

func (s *Service) finish(res RunResult) {
	s.mu.Lock()
	s.last = &res
	listeners := append([]func(RunResult){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
}
