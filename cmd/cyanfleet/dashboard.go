package main

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/cyan-fleet-control/internal/config"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/statusapi"
	"github.com/kingrea/cyan-fleet-control/internal/tui"
)

const shutdownTimeout = 2 * time.Second

// runDashboard runs the engine, the config watcher, the status server and the
// TUI until the TUI exits or ctx is cancelled.
func runDashboard(ctx context.Context, opts *rootOptions) error {
	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer rt.close()
	return serveDashboard(ctx, rt, opts)
}

// serveDashboard owns the goroutines of one dashboard session. Every path out
// of it cancels and waits for them.
func serveDashboard(ctx context.Context, rt *runtime, opts *rootOptions) error {
	log := rt.logger.Zap()

	group, groupCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(groupCtx)
	defer cancel()

	group.Go(func() error {
		return rt.engine.Run(runCtx)
	})

	if opts.interval == 0 {
		group.Go(func() error {
			err := config.Watch(runCtx, rt.cfg.ProjectConfigPath(), log, func(pc config.ProjectConfig) {
				rt.engine.SetInterval(pc.Sync.Interval)
			})
			if err != nil {
				// The dashboard keeps working with the interval it started with.
				log.Warn("config watcher unavailable", zap.Error(err))
			}
			return nil
		})
	}

	settings := statusapi.SettingsFromConfig(rt.cfg)
	if !opts.noStatus && settings.Enabled {
		server := statusapi.NewServer(settings, rt.store,
			statusapi.WithLogger(log),
			statusapi.WithMetricsHandler(metrics.HTTPHandler(rt.registry)),
			statusapi.WithQueue(rt.engine.Queue()),
			statusapi.WithJournal(rt.journal),
		)
		if err := server.Start(runCtx); err != nil {
			cancel()
			_ = group.Wait()
			return err
		}
		rt.logger.Infof("status server at %s", server.BaseURL())
		group.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return server.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		defer cancel()
		app := tui.NewApp(rt.store, rt.engine,
			tui.WithPreferencesPath(rt.prefsPath),
			tui.WithLogger(log),
		)
		program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(runCtx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	})

	return group.Wait()
}
