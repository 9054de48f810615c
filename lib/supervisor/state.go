// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"time"

	"github.com/nodeward/nodeward/lib/codec"
)

// stateRecord is the snapshot schema persisted to Config.StatePath.
// External tooling reads it to learn what the supervisor is running
// without parsing logs.
type stateRecord struct {
	UpdatedAt time.Time         `cbor:"updated_at"`
	Info      map[string]string `cbor:"info,omitempty"`
	Children  []childRecord     `cbor:"children"`
}

type childRecord struct {
	Name      string    `cbor:"name"`
	PID       int       `cbor:"pid"`
	Status    Status    `cbor:"status"`
	Restarts  int       `cbor:"restarts"`
	StartedAt time.Time `cbor:"started_at"`
}

// writeStateLocked snapshots the children to the state file. Failures
// are logged, not returned: the snapshot is advisory and must never
// take down supervision. The caller holds s.mu.
func (s *Supervisor) writeStateLocked() {
	if s.statePath == "" {
		return
	}

	record := stateRecord{
		UpdatedAt: s.clk.Now(),
		Info:      s.stateInfo,
		Children:  make([]childRecord, 0, len(s.order)),
	}
	for _, name := range s.order {
		c := s.children[name]
		record.Children = append(record.Children, childRecord{
			Name:      c.spec.Name,
			PID:       c.pid,
			Status:    c.status,
			Restarts:  c.restarts,
			StartedAt: c.startedAt,
		})
	}

	data, err := codec.Marshal(record)
	if err != nil {
		s.logger.Warn("marshaling state snapshot", "error", err)
		return
	}
	if err := writeStateFile(s.statePath, data); err != nil {
		s.logger.Warn("writing state snapshot", "path", s.statePath, "error", err)
	}
}

// removeState deletes the state file at shutdown so stale snapshots
// never outlive the supervisor.
func (s *Supervisor) removeState() {
	if s.statePath == "" {
		return
	}
	if err := os.Remove(s.statePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("removing state snapshot", "path", s.statePath, "error", err)
	}
}

// writeStateFile writes data atomically via a temp file and rename so
// readers never observe a partial snapshot.
func writeStateFile(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary state file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming state file into place: %w", err)
	}
	return nil
}
