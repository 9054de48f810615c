// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package jwtsecret

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nodeward/nodeward/lib/clock"
	"github.com/nodeward/nodeward/lib/netutil"
	"github.com/nodeward/nodeward/lib/secret"
)

// Provisioner fetches the authentication secret from a remote HTTP
// source and persists it to the node's credential path.
type Provisioner struct {
	// URL is the HTTP GET endpoint returning the raw secret bytes.
	URL string

	// Path is the credential file destination.
	Path string

	// RetryInterval is the fixed delay between fetch attempts.
	RetryInterval time.Duration

	// Client issues the fetch requests. Its Timeout bounds each
	// individual attempt.
	Client *http.Client

	// Clock drives the retry delay.
	Clock clock.Clock

	// Logger receives one line per failed attempt.
	Logger *slog.Logger
}

// Provision blocks until the secret file exists at Path or ctx is
// canceled. Fetch failures (network error, non-2xx status, empty
// body) are logged and retried indefinitely on RetryInterval; only
// cancellation and local filesystem failure surface as errors. The
// file is written once, atomically, with owner-only permissions.
func (p *Provisioner) Provision(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0700); err != nil {
		return fmt.Errorf("creating secret directory: %w", err)
	}

	for attempt := 1; ; attempt++ {
		fetched, err := p.fetch(ctx)
		if err == nil {
			writeErr := writeFileAtomic(p.Path, fetched.Bytes(), 0600)
			fetched.Close()
			if writeErr != nil {
				return writeErr
			}
			p.Logger.Info("authentication secret provisioned",
				"path", p.Path,
				"attempts", attempt)
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.Logger.Warn("secret not yet available, waiting",
			"error", err,
			"attempt", attempt,
			"retry_in", p.RetryInterval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Clock.After(p.RetryInterval):
		}
	}
}

// fetch performs one GET against the secret endpoint. Any non-2xx
// status is a failure; a 2xx with an empty body is also a failure so
// an empty credential file can never be written. The returned buffer
// keeps the secret out of swap and core dumps until the caller has
// written it to disk; the caller must close it.
func (p *Provisioner) fetch(ctx context.Context) (*secret.Buffer, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building secret request: %w", err)
	}

	response, err := p.Client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching secret: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("secret endpoint returned %s: %s",
			response.Status, netutil.ErrorBody(response.Body))
	}

	raw, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading secret response: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("secret endpoint returned an empty body")
	}

	buffer, err := secret.NewFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("protecting secret: %w", err)
	}
	return buffer, nil
}

// writeFileAtomic writes data to path via a temp file + rename so a
// reader never observes a partial write.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating temporary secret file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary secret file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary secret file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary secret file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming secret file into place: %w", err)
	}

	return nil
}
