// Package mcp exposes the projection engine as a Model Context Protocol
// server. Tools run scenarios and query their views; prompts package the
// views as CSV context for an external model.
package mcp

import (
	"context"
	"errors"
	"sync"

	"ops-mcs/internal/config"
	"ops-mcs/internal/dataset"
	"ops-mcs/internal/scenario"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is reported to clients during initialization.
const ServerName = "ops-mcs"

// ErrNoData is returned when a tool needs observations and the store is empty.
var ErrNoData = errors.New("no operational data loaded")

// Server holds the state for the MCP server.
type Server struct {
	cfg   *config.AppConfig
	store *dataset.Store
	mcp   *mcp.Server

	mu   sync.Mutex
	last *scenario.Results
}

// NewServer creates a new MCP server over store and registers its tools and prompts.
func NewServer(cfg *config.AppConfig, store *dataset.Store, version string) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mcp: mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, &mcp.ServerOptions{
			Instructions: "Monte Carlo scenario projections for operational metrics. " +
				"Call run_scenarios first, then query paths and endpoints per facility and metric.",
		}),
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves a single session on transport until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	log.Info().
		Int("records", s.store.Len()).
		Int("series", len(s.store.Keys())).
		Msg("Starting MCP server")
	err := s.mcp.Run(ctx, transport)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// results returns the most recent run, executing one with the configured
// settings when none exists yet.
func (s *Server) results(ctx context.Context) (*scenario.Results, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last != nil {
		return last, nil
	}

	settings, err := capped(s.cfg.Settings.Scenarios)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, settings)
}

func (s *Server) run(ctx context.Context, settings scenario.Settings) (*scenario.Results, error) {
	if s.store.Len() == 0 {
		return nil, ErrNoData
	}
	res, err := scenario.Run(ctx, s.store, settings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	return res, nil
}

// subset narrows the store to one facility and/or metric. Empty filters match everything.
func (s *Server) subset(facility, metric string) *dataset.Store {
	if facility == "" && metric == "" {
		return s.store
	}
	var records []dataset.Record
	for _, k := range s.store.Keys() {
		if facility != "" && k.Facility != facility {
			continue
		}
		if metric != "" && k.Metric != metric {
			continue
		}
		records = append(records, s.store.Records(k.Facility, k.Metric)...)
	}
	return dataset.NewStoreFrom(records)
}
