// Package scenario runs the Monte-Carlo projection for every
// (facility, metric, scenario) combination of a dataset and derives the flat
// reporting views from the result.
package scenario

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type job struct {
	key     Key
	history []float64
	cfg     simulation.SimulationConfig
}

// RunAll groups records by facility and metric and projects every group under
// every scenario.
func RunAll(ctx context.Context, records []dataset.Record, s Settings) (*Results, error) {
	return Run(ctx, dataset.NewStoreFrom(records), s)
}

// Run projects every series held by store under every scenario of s. Series
// with fewer than MinObservations points are skipped. Configuration errors are
// returned before any simulation starts. Output does not depend on Workers:
// each projection uses a sub-seed derived from (Seed, facility, metric, scenario).
func Run(ctx context.Context, store *dataset.Store, s Settings) (*Results, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario settings: %w", err)
	}

	res := &Results{
		RunID:       uuid.NewString(),
		Seed:        s.Seed,
		MonthsAhead: s.MonthsAhead(),
		entries:     make(map[Key]simulation.ProjectionSummary),
		scenarios:   s.ScenarioNames(),
	}
	logger := log.With().Str("run", res.RunID).Logger()
	started := time.Now()

	var jobs []job
	for _, k := range store.Keys() {
		history := store.Series(k.Facility, k.Metric)
		if len(history) < MinObservations {
			res.skipped = append(res.skipped, SkippedSeries{Facility: k.Facility, Metric: k.Metric, Observations: len(history)})
			logger.Debug().Str("facility", k.Facility).Str("metric", k.Metric).Int("observations", len(history)).Msg("Skipping short series")
			continue
		}
		for _, name := range res.scenarios {
			jobs = append(jobs, job{
				key:     Key{Facility: k.Facility, Metric: k.Metric, Scenario: name},
				history: history,
				cfg: simulation.SimulationConfig{
					MonthsAhead:        res.MonthsAhead,
					NumSimulations:     s.NumSimulations,
					ScenarioMultiplier: s.Variations[name],
					Volatility:         s.Volatility,
				},
			})
		}
	}

	if err := s.checkWorkload(len(jobs)); err != nil {
		return nil, err
	}

	logger.Info().
		Int("series", len(store.Keys())).
		Int("skipped", len(res.skipped)).
		Int("projections", len(jobs)).
		Int("months_ahead", res.MonthsAhead).
		Int("num_simulations", s.NumSimulations).
		Msg("Scenario run starting")

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	summaries := make([]simulation.ProjectionSummary, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			engine := simulation.NewEngine(simulation.DeriveSeed(s.Seed, j.key.Facility, j.key.Metric, j.key.Scenario))
			summary, err := engine.Project(j.history, j.cfg)
			if err != nil {
				return fmt.Errorf("project %s/%s/%s: %w", j.key.Facility, j.key.Metric, j.key.Scenario, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		res.entries[j.key] = summaries[i]
		res.order = append(res.order, j.key)
	}

	logger.Info().
		Int("projections", res.Len()).
		Dur("elapsed", time.Since(started)).
		Msg("Scenario run finished")
	return res, nil
}
