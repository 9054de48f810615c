// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nodeward/nodeward/lib/certwatch"
	"github.com/nodeward/nodeward/lib/clock"
	"github.com/nodeward/nodeward/lib/config"
	"github.com/nodeward/nodeward/lib/netprofile"
	"github.com/nodeward/nodeward/lib/process"
	"github.com/nodeward/nodeward/lib/supervisor"
	"github.com/nodeward/nodeward/lib/version"
)

// Child names used for log tagging and signal routing.
const (
	nodeChild  = "node"
	proxyChild = "proxy"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath   string
		network      string
		extraOptions string
		showVersion  bool
	)
	flag.StringVar(&configPath, "config", "", "path to YAML configuration (defaults to $NODEWARD_CONFIG, then built-ins)")
	flag.StringVar(&network, "network", "", "network selector, overrides the configured value")
	flag.StringVar(&extraOptions, "extra-options", "", "extra node options, overrides the configured value")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("nodeward %s\n", version.Full())
		return nil
	}

	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath, network, extraOptions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return launch(ctx, cfg, logger)
}

// loadConfig loads the configuration and applies command-line
// overrides before validation, so an override is subject to the same
// checks as a configured value.
func loadConfig(path, network, extraOptions string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if network != "" {
		cfg.Network = network
	}
	if extraOptions != "" {
		cfg.Node.ExtraOptions = extraOptions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// launch wires the supervision tree and blocks until shutdown. The
// proxy and the certificate watcher start immediately; the node is
// held back until its JWT secret is on disk.
func launch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	profile := netprofile.Resolve(cfg.Network, cfg.DataRoot)
	logger.Info("resolved network profile",
		"network", profile.Network,
		"data_dir", profile.DataDir,
		"p2p_port", profile.P2PPort,
	)

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	// Resolve both binaries before anything starts: a missing binary
	// is a startup failure, not something to discover mid-boot.
	nodeBinary, err := cfg.BinaryPath(cfg.Node.Binary)
	if err != nil {
		return fmt.Errorf("resolving node binary: %w", err)
	}
	proxyBinary, err := cfg.BinaryPath(cfg.Proxy.Binary)
	if err != nil {
		return fmt.Errorf("resolving proxy binary: %w", err)
	}

	sup := supervisor.New(supervisorConfig(cfg, profile, logger))

	// The proxy terminates TLS in front of the node's HTTP endpoints.
	// It starts before the node exists; upstream connections fail
	// until the node is up, which the proxy surfaces as 502s.
	if err := sup.Start(supervisor.ProcessSpec{
		Name:    proxyChild,
		Command: append([]string{proxyBinary}, cfg.Proxy.Options...),
		Restart: supervisor.RestartAlways,
	}); err != nil {
		return err
	}

	if cfg.WatcherEnabled() {
		watcher := &certwatch.Watcher{
			CertificatePath: cfg.TLS.Certificate,
			KeyPath:         cfg.TLS.Key,
			Interval:        cfg.TLS.PollInterval.Std(),
			Reload: func() error {
				return sup.Signal(proxyChild, cfg.Proxy.Signal())
			},
			Clock:  clock.Real(),
			Logger: logger,
		}
		sup.StartTask(ctx, "certwatch", watcher.Run)
	}

	// The node bootstrap runs as a task so that shutdown cancels a
	// still-retrying secret fetch. A bootstrap error past that point
	// means the node can never come up; it takes the unit down.
	bootstrap := &nodeBootstrap{
		config:  cfg,
		profile: profile,
		binary:  nodeBinary,
		logger:  logger,
		clk:     clock.Real(),
		start:   sup.Start,
	}
	sup.StartTask(ctx, "node-bootstrap", func(taskCtx context.Context) error {
		if err := bootstrap.run(taskCtx); err != nil && taskCtx.Err() == nil {
			sup.Fail(err)
		}
		return nil
	})

	return sup.Wait(ctx)
}

// supervisorConfig assembles the supervisor's configuration. Tagged
// child output goes to stdout; the unit's own structured logs stay on
// stderr.
func supervisorConfig(cfg *config.Config, profile netprofile.Profile, logger *slog.Logger) supervisor.Config {
	return supervisor.Config{
		Logger:       logger,
		Output:       os.Stdout,
		GracePeriod:  cfg.Shutdown.GracePeriod.Std(),
		RestartDelay: cfg.Shutdown.RestartDelay.Std(),
		StatePath:    filepath.Join(cfg.RunDir, "state.cbor"),
		StateInfo: map[string]string{
			"network": profile.Network,
			"version": version.Short(),
		},
	}
}
