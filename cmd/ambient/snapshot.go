package main

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorewood/ambient/internal/config"
	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/repostatus"
	"github.com/gorewood/ambient/internal/toolprobe"
)

// collectSnapshot inspects the configured repositories and probes the tool
// registry. The two run side by side; neither fails the other.
func collectSnapshot(ctx context.Context, cfg *config.Config, log *zap.Logger) (render.Snapshot, error) {
	repos := repostatus.Plan(cfg.Workspace, cfg.IncludeRoot, lo.Map(cfg.Repositories,
		func(r config.Repository, _ int) repostatus.Repository {
			return repostatus.Repository{Path: r.Path, DefaultBranch: r.DefaultBranch}
		}), log)

	aggregator := repostatus.New(repostatus.Options{
		Workspace:      cfg.Workspace,
		Remote:         cfg.Remote,
		Fetch:          cfg.Fetch,
		NetworkTimeout: cfg.NetworkTimeout,
		Concurrency:    cfg.Concurrency,
		Logger:         log,
	})
	prober := toolprobe.Prober{ShowUnavailable: cfg.ShowUnavailable, Logger: log}

	var snap render.Snapshot
	var g errgroup.Group
	g.Go(func() error {
		snap.Repositories = aggregator.Aggregate(ctx, repos)
		return nil
	})
	g.Go(func() error {
		snap.Tools = prober.Probe(cfg.ToolRegistry())
		return nil
	})
	_ = g.Wait()
	return snap, nil
}
