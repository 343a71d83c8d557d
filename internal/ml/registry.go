package ml

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
	"github.com/fibrotrack-server/internal/service"
)

// Registry assembles the configured predictors for injection into the
// services. An empty predictor base URL disables models entirely; the
// accessors then return nil and the services run rule-based only.
type Registry struct {
	risk     domain.RiskPredictor
	severity service.SeverityPredictor
	cached   *CachedPredictor
}

// NewRegistry builds the predictor registry from configuration.
func NewRegistry(config *domain.Config, logger *logrus.Logger) (*Registry, error) {
	r := &Registry{}

	if config.Predictor.BaseURL == "" {
		logger.Info("Risk predictor disabled, running rule-based only")
		return r, nil
	}

	client, err := NewClient(config.Predictor, logger)
	if err != nil {
		return nil, fmt.Errorf("creating inference client: %w", err)
	}
	r.risk = client
	r.severity = client

	if config.Cache.Enabled {
		cached, err := NewCachedPredictor(client, config.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("creating prediction cache: %w", err)
		}
		r.risk = cached
		r.cached = cached
	}

	return r, nil
}

// Risk returns the risk predictor, or nil when disabled.
func (r *Registry) Risk() domain.RiskPredictor { return r.risk }

// Severity returns the scale severity predictor, or nil when disabled.
func (r *Registry) Severity() service.SeverityPredictor { return r.severity }

// Close releases predictor resources.
func (r *Registry) Close() error {
	if r.cached != nil {
		return r.cached.Close()
	}
	return nil
}
