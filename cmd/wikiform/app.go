package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goliatone/go-wikiform/internal/config/loader"
	"github.com/goliatone/go-wikiform/pkg/config"
	"github.com/goliatone/go-wikiform/pkg/metrics"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/submit"
)

// loadConfig reads the configuration document and applies WIKIFORM_*
// overrides.
func loadConfig(ctx context.Context) (config.Config, error) {
	src, err := config.ParseSource(configPath)
	if err != nil {
		return config.Config{}, err
	}
	l := loader.New(config.NewLoaderOptions(config.WithRemote(30*time.Second, 2)))
	cfg, err := l.Load(ctx, src)
	if err != nil {
		return config.Config{}, err
	}
	return applyEnv(cfg)
}

func applyEnv(cfg config.Config) (config.Config, error) {
	cfg = cfg.Merge(config.FromEnv(nil))
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

type buildOptions struct {
	recorder  *metrics.Recorder
	submitter submit.Submitter
}

func newOrchestrator(cfg config.Config, opts buildOptions) (*orchestrator.Orchestrator, error) {
	options := []orchestrator.Option{
		orchestrator.WithConfig(cfg),
		orchestrator.WithLogger(logger),
	}
	if opts.recorder != nil {
		options = append(options, orchestrator.WithMetrics(opts.recorder))
	}
	if opts.submitter != nil {
		options = append(options, orchestrator.WithSubmitter(opts.submitter))
	}
	if presetPath != "" {
		preset, err := orchestrator.LoadPresetTransformer(os.DirFS(filepath.Dir(presetPath)), filepath.Base(presetPath))
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}
	return orchestrator.New(options...)
}

// submitURL is the write proxy base URL: the configured one, or this
// process's own proxy routes when it serves them.
func submitURL(cfg config.Config) string {
	if cfg.Server.SubmitURL != "" {
		return cfg.Server.SubmitURL
	}
	if !cfg.Server.Proxy {
		return ""
	}
	host, port, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func newSubmitter(cfg config.Config, recorder *metrics.Recorder) (submit.Submitter, error) {
	base := submitURL(cfg)
	if base == "" {
		return nil, nil
	}
	opts := []submit.Option{submit.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, submit.WithObserver(recorder))
	}
	client, err := submit.New(base, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newRecorder() (*metrics.Recorder, prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.New(reg)
	if err != nil {
		return nil, nil, err
	}
	return recorder, reg, nil
}
