package wiring

import (
	"context"
	"fmt"
	"time"

	"procreport/internal/config"
	"procreport/internal/graph"
	"procreport/internal/logging"
	"procreport/internal/logs"
	"procreport/internal/store"
)

// Resources are the live collaborators built from a Config.
type Resources struct {
	Deps  Deps
	Store *store.SQLStore
	// Graph is nil when neither storage nor mail is configured.
	Graph *graph.Client
}

// Close releases the database connection.
func (r *Resources) Close() error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// Open connects the store, prepares the log locator and summarizer, and
// signs in to Graph when remote storage or mail delivery is configured.
// needGraph forces the Graph sign-in for mail delivery. A missing token
// cache surfaces as graph.ErrLoginRequired.
func Open(ctx context.Context, cfg *config.Config, needGraph bool) (*Resources, error) {
	logger := logging.New("wiring")
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	res := &Resources{Store: st}
	res.Deps.Source = st
	now := time.Now()
	res.Deps.Now = func() time.Time { return now }

	if cfg.LogsEnabled() {
		loc := logs.NewLocator(cfg.Logs.Dir)
		if cfg.Logs.DatePattern != "" {
			loc.DatePattern = cfg.Logs.DatePattern
		}
		if cfg.Logs.DateLayout != "" {
			loc.DateLayout = cfg.Logs.DateLayout
		}
		res.Deps.Locator = loc
		res.Deps.Summarizer = &logs.Summarizer{Charset: cfg.Logs.Charset}
		res.Deps.ExtractDir = cfg.ExtractDir
	} else {
		logger.Info("log lookup disabled", "reason", "logs.dir not set")
	}

	if cfg.StorageEnabled() || needGraph {
		client, err := NewGraphClient(ctx, cfg)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		res.Graph = client
		if cfg.StorageEnabled() {
			res.Deps.Drive = graph.NewDrive(client, cfg.Storage.LinkScope)
		}
	} else {
		logger.Info("video lookup disabled", "reason", "storage.root not set")
	}
	return res, nil
}

// NewGraphClient builds an authenticated Graph client from cfg.
func NewGraphClient(ctx context.Context, cfg *config.Config) (*graph.Client, error) {
	ts, err := graph.TokenSource(ctx, AuthConfig(cfg))
	if err != nil {
		return nil, err
	}
	return graph.New(cfg.Graph.BaseURL,
		graph.WithTokenSource(ts),
		graph.WithTimeout(cfg.Graph.Timeout),
		graph.WithRateLimit(cfg.Graph.RateLimit, cfg.Graph.Burst),
		graph.WithLogger(logging.New("graph")),
	)
}

// AuthConfig maps the Graph section of cfg to the device-flow settings.
func AuthConfig(cfg *config.Config) graph.AuthConfig {
	return graph.AuthConfig{
		TenantID:  cfg.Graph.TenantID,
		ClientID:  cfg.Graph.ClientID,
		Scopes:    cfg.Graph.Scopes,
		CachePath: cfg.Graph.TokenCache,
		Authority: cfg.Graph.Authority,
	}
}
