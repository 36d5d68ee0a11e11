package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatdesk/config"
	"chatdesk/discovery"
	"chatdesk/logging"
	"chatdesk/network"
	"chatdesk/storage"
	"chatdesk/ui"
)

type appOptions struct {
	// console mirrors logs to stderr; the TUI leaves it off so the screen
	// stays clean.
	console bool
}

// app holds everything a command needs for one run.
type app struct {
	cfg      *config.ClientConfig
	dataDir  string
	logger   *zap.Logger
	registry *prometheus.Registry
	client   *network.Client
	store    *storage.Store
	runner   *ui.Runner

	closeLog func() error
}

func openApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, cfgPath, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var console io.Writer
	if opts.console {
		console = cmd.ErrOrStderr()
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Path:    cfg.LogPath,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	a := &app{
		cfg:      cfg,
		dataDir:  dataDirOf(cfgPath),
		logger:   logger.With(zap.String("client_id", cfg.ClientID)),
		registry: prometheus.NewRegistry(),
		closeLog: closeLog,
	}

	baseURL, err := resolveBaseURL(cmd, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	metrics, err := network.NewMetrics(a.registry)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.client, err = network.NewClient(network.Options{
		BaseURL:   baseURL,
		Metrics:   metrics,
		UserAgent: "chatdesk/" + version,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// A nil *storage.Store must not reach the runner as a non-nil Journal.
	var journal ui.Journal
	if cfg.Journaling() {
		if err := a.openStore(); err != nil {
			_ = a.Close()
			return nil, err
		}
		if abandoned, err := a.store.AbandonPendingWrites("interrupted"); err != nil {
			a.logger.Warn("abandon pending writes failed", zap.Error(err))
		} else if abandoned > 0 {
			a.logger.Info("marked interrupted writes as failed", zap.Int64("count", abandoned))
		}
		journal = a.store
	}

	a.runner = ui.NewRunner(a.client, journal, a.logger)
	a.logger.Debug("client ready", zap.String("base_url", a.client.BaseURL()), zap.Bool("journal", journal != nil))
	return a, nil
}

func (a *app) openStore() error {
	if a.store != nil {
		return nil
	}
	store, _, err := storage.Open(a.dataDir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	store.SetRetention(time.Duration(a.cfg.JournalRetentionHours) * time.Hour)
	a.store = store
	return nil
}

func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}

// resolveBaseURL applies --base-url, then the configured backend mode.
func resolveBaseURL(cmd *cobra.Command, cfg *config.ClientConfig) (string, error) {
	if flag, _ := cmd.Flags().GetString("base-url"); flag != "" {
		return flag, nil
	}
	if cfg.BackendMode != config.BackendModeMDNS {
		return cfg.BaseURL, nil
	}

	base, err := discovery.ResolveBaseURL(commandContext(cmd), discovery.Config{Service: cfg.DiscoveryService})
	if err != nil {
		return "", fmt.Errorf("discover backend: %w", err)
	}
	return base, nil
}

func dataDirOf(cfgPath string) string {
	return filepath.Dir(cfgPath)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
