package cmd

import (
	"github.com/felixgeelhaar/stride/internal/backend"
	"github.com/felixgeelhaar/stride/internal/coach"
	"github.com/felixgeelhaar/stride/internal/config"
	"github.com/felixgeelhaar/stride/internal/decompose"
	"github.com/felixgeelhaar/stride/internal/engine"
	"github.com/felixgeelhaar/stride/internal/log"
	"github.com/felixgeelhaar/stride/internal/provider"
)

// app wires the configured provider, backend client, engine, and coach
// for a single command invocation.
type app struct {
	cfg      config.Config
	logger   *log.Logger
	registry *provider.Registry
	engine   *engine.Engine
	coach    *coach.Coach
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:       log.ParseLevel(cfg.Log.Level),
		Format:      log.ParseFormat(cfg.Log.Format),
		Output:      log.OutputStderr(),
		ServiceName: "stride",
	})
	log.SetDefaultLogger(logger)

	registry := provider.NewRegistry()
	client, err := registry.Get(cfg.Provider.Name, &provider.Config{
		Name:    cfg.Provider.Name,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return nil, err
	}

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return nil, err
	}

	pipeline := decompose.NewPipeline(client, logger)
	eng := engine.New(backendClient, pipeline, logger, engine.WithSettings(cfg.Settings))

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		engine:   eng,
		coach:    coach.New(client, logger),
	}, nil
}

// close waits for in-flight mutations and releases provider clients.
func (a *app) close() {
	a.engine.Wait()
	if err := a.registry.CloseAll(); err != nil {
		a.logger.WithError(err).Warn("closing provider clients")
	}
}
