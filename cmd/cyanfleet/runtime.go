package main

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kingrea/cyan-fleet-control/internal/config"
	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/engine"
	"github.com/kingrea/cyan-fleet-control/internal/logbook"
	"github.com/kingrea/cyan-fleet-control/internal/logging"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

// runtime bundles everything one cyanfleet process owns.
type runtime struct {
	cfg       *config.Config
	logger    *logging.Logger
	journal   *logbook.Logbook
	store     *state.Store
	prefsPath string
	registry  *prometheus.Registry
	engine    *engine.Engine
}

func bootstrap(opts *rootOptions) (*runtime, error) {
	dir, err := opts.projectDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitStateDir(dir); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", config.StateDirName, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(dir, opts.verbose)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	journal, err := logbook.New(filepath.Join(cfg.LogsDir(), logbook.FileName))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.journal = journal

	rt.store = state.New(state.WithLogMirror(journal))
	rt.prefsPath = filepath.Join(cfg.PreferencesDir(), state.PreferencesFile)
	if prefs, err := state.LoadPreferences(rt.prefsPath); err != nil {
		logger.Warnf("load preferences: %v", err)
	} else {
		rt.store.ApplyPreferences(prefs)
	}

	client, err := spacetraders.New(cfg.Project.API.BaseURL, cfg.Token,
		spacetraders.WithTimeout(cfg.Project.API.Timeout))
	if err != nil {
		rt.close()
		return nil, err
	}

	interval := cfg.Project.Sync.Interval
	if opts.interval > 0 {
		interval = opts.interval
	}
	rt.registry = prometheus.NewRegistry()
	rt.engine, err = engine.New(client, rt.store,
		engine.WithLogger(logger.Zap()),
		engine.WithMetrics(metrics.NewPrometheusRecorder(rt.registry)),
		engine.WithInterval(interval),
		engine.WithActionBuffer(cfg.Project.Sync.ActionBuffer),
	)
	if err != nil {
		rt.close()
		return nil, err
	}
	logger.Infof("cyanfleet started in %s with interval %s", dir, interval)
	return rt, nil
}

func (rt *runtime) close() {
	if rt == nil {
		return
	}
	_ = rt.logger.Close()
}
