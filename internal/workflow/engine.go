package workflow

import (
	"log/slog"

	"hirepipe/internal/config"
	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/store"
)

const defaultConcurrency = 4

// Engine coordinates stage advancement, manual transitions, and notification fan-out.
type Engine struct {
	store       *store.Store
	notifier    notifications.Service
	authorizer  Authorizer
	logger      *slog.Logger
	concurrency int
	maxStages   int
}

// NewEngine constructs an engine that notifies through the configured relay.
func NewEngine(cfg *config.Config, st *store.Store, logger *slog.Logger) *Engine {
	return NewEngineWithNotifier(cfg, st, logger, notifications.NewService(cfg))
}

// NewEngineWithNotifier constructs an engine with a custom notifier (used in tests).
func NewEngineWithNotifier(cfg *config.Config, st *store.Store, logger *slog.Logger, notifier notifications.Service) *Engine {
	concurrency := defaultConcurrency
	maxStages := store.MaxTotalStages
	if cfg != nil {
		if cfg.Notifications.Concurrency > 0 {
			concurrency = cfg.Notifications.Concurrency
		}
		if cfg.Stages.MaxTotalStages > 0 && cfg.Stages.MaxTotalStages < maxStages {
			maxStages = cfg.Stages.MaxTotalStages
		}
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Engine{
		store:       st,
		notifier:    notifier,
		authorizer:  OwnerOrAdmin{},
		logger:      logging.NewComponentLogger(logger, "workflow"),
		concurrency: concurrency,
		maxStages:   maxStages,
	}
}

// SetAuthorizer replaces the ownership check used by SetStatus.
func (e *Engine) SetAuthorizer(a Authorizer) {
	if a == nil {
		a = OwnerOrAdmin{}
	}
	e.authorizer = a
}

// Store exposes the underlying store for read-side callers.
func (e *Engine) Store() *store.Store {
	return e.store
}
