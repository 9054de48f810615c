// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/nodeward/nodeward/lib/clock"
	"github.com/nodeward/nodeward/lib/config"
	"github.com/nodeward/nodeward/lib/jwtsecret"
	"github.com/nodeward/nodeward/lib/netprofile"
	"github.com/nodeward/nodeward/lib/nodeargs"
	"github.com/nodeward/nodeward/lib/supervisor"
)

// nodeBootstrap takes the node child from nothing to supervised:
// provision the JWT secret, probe the node version, assemble the
// command line, hand the process to the supervisor.
type nodeBootstrap struct {
	config  *config.Config
	profile netprofile.Profile
	binary  string
	logger  *slog.Logger
	clk     clock.Clock

	// start submits the assembled node process for supervision.
	start func(supervisor.ProcessSpec) error
}

// run blocks until the node child is started or ctx is cancelled. The
// secret must be on disk before the node's first start; the engine
// API refuses connections without it.
func (b *nodeBootstrap) run(ctx context.Context) error {
	secretPath := b.profile.JWTSecretPath()

	provisioner := &jwtsecret.Provisioner{
		URL:           b.config.Secret.URL,
		Path:          secretPath,
		RetryInterval: b.config.Secret.RetryInterval.Std(),
		Client:        &http.Client{Timeout: b.config.Secret.RequestTimeout.Std()},
		Clock:         b.clk,
		Logger:        b.logger,
	}
	if err := provisioner.Provision(ctx); err != nil {
		return fmt.Errorf("provisioning JWT secret: %w", err)
	}

	b.logVersion(ctx)

	extra := nodeargs.Normalize(nodeargs.Split(b.config.Node.ExtraOptions))
	args := nodeargs.Assemble(b.profile, b.config.Node.AuthRPCPort, secretPath, extra)
	b.logger.Info("starting node",
		"network", b.profile.Network,
		"binary", b.binary,
		"args", strings.Join(args, " "),
	)

	return b.start(supervisor.ProcessSpec{
		Name:    nodeChild,
		Command: append([]string{b.binary}, args...),
		Restart: supervisor.RestartAlways,
	})
}

// logVersion runs the node binary's version subcommand and logs its
// output. Best-effort: a failed probe is a warning, never a reason to
// hold back the launch.
func (b *nodeBootstrap) logVersion(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, b.binary, "version").CombinedOutput()
	if err != nil {
		b.logger.Warn("querying node version", "binary", b.binary, "error", err)
		return
	}
	// The version subcommand prints a multi-line report; the first
	// line identifies the build.
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	b.logger.Info("node version", "output", line)
}
