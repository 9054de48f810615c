// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/nodeward/nodeward/lib/clock"
)

// RestartPolicy selects what happens when a child process exits.
type RestartPolicy string

const (
	// RestartAlways respawns the child after every exit, regardless of
	// exit code, until the supervisor shuts down.
	RestartAlways RestartPolicy = "always"

	// RestartNever leaves the child stopped after its first exit.
	RestartNever RestartPolicy = "never"
)

// Status describes a child's position in its lifecycle.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusExited   Status = "exited"
	StatusFailed   Status = "failed"
)

// ProcessSpec describes a child process to supervise. The same spec is
// used for every respawn, so a restarted child always receives an
// equivalent command line.
type ProcessSpec struct {
	// Name tags the child's log lines and identifies it in Signal
	// calls. Must be unique within a supervisor.
	Name string

	// Command is the full argv. Command[0] is the binary path, either
	// absolute or resolvable via PATH.
	Command []string

	// Restart selects the restart policy. Defaults to RestartNever.
	Restart RestartPolicy
}

func (spec ProcessSpec) validate() error {
	if spec.Name == "" {
		return errors.New("process spec has no name")
	}
	if len(spec.Command) == 0 {
		return fmt.Errorf("process %q has an empty command", spec.Name)
	}
	switch spec.Restart {
	case RestartAlways, RestartNever, "":
	default:
		return fmt.Errorf("process %q has unknown restart policy %q", spec.Name, spec.Restart)
	}
	return nil
}

// Config carries the supervisor's dependencies and tuning knobs.
type Config struct {
	// Logger receives the supervisor's own structured log output.
	// Required.
	Logger *slog.Logger

	// Clock drives restart delays and the shutdown grace period.
	// Defaults to the real clock.
	Clock clock.Clock

	// Output is the sink for tagged child stdout/stderr lines.
	// Defaults to os.Stderr.
	Output io.Writer

	// GracePeriod bounds how long Wait allows children to exit after
	// SIGTERM before force-killing their process groups. Defaults to
	// two minutes.
	GracePeriod time.Duration

	// RestartDelay is the pause between a child exiting (or a task
	// failing) and the respawn attempt. Defaults to one second.
	RestartDelay time.Duration

	// StatePath, when set, names a file that receives an atomically
	// written CBOR snapshot of the supervised children on every
	// lifecycle transition. Removed on shutdown.
	StatePath string

	// StateInfo is copied verbatim into every state snapshot.
	StateInfo map[string]string
}

// Supervisor manages a set of child processes and background tasks.
// Children are added with Start, tasks with StartTask, and Wait blocks
// until shutdown. All methods are safe for concurrent use.
type Supervisor struct {
	logger       *slog.Logger
	clk          clock.Clock
	output       io.Writer
	gracePeriod  time.Duration
	restartDelay time.Duration
	statePath    string
	stateInfo    map[string]string

	// outputMu serializes tagged line writes across all children so
	// output from different processes interleaves only at line
	// boundaries.
	outputMu sync.Mutex

	mu       sync.Mutex
	children map[string]*child
	order    []string
	cancels  []context.CancelFunc
	stopping bool

	stopCh chan struct{}
	fatal  chan error
	wg     sync.WaitGroup
}

// child is the supervisor's record of one managed process. All fields
// below spec are guarded by Supervisor.mu.
type child struct {
	spec      ProcessSpec
	stdout    *tagWriter
	stderr    *tagWriter
	cmd       *exec.Cmd
	pid       int
	status    Status
	restarts  int
	startedAt time.Time
}

// New creates a Supervisor. Missing optional Config fields are filled
// with defaults.
func New(config Config) *Supervisor {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = 2 * time.Minute
	}
	if config.RestartDelay <= 0 {
		config.RestartDelay = time.Second
	}
	return &Supervisor{
		logger:       config.Logger,
		clk:          config.Clock,
		output:       config.Output,
		gracePeriod:  config.GracePeriod,
		restartDelay: config.RestartDelay,
		statePath:    config.StatePath,
		stateInfo:    config.StateInfo,
		children:     make(map[string]*child),
		stopCh:       make(chan struct{}),
		fatal:        make(chan error, 1),
	}
}

// Start spawns a child process and begins supervising it. The first
// spawn is the startup contract: if the process cannot be started at
// all, Start returns the error and the child is not registered. Exits
// after a successful start are handled by the restart policy instead.
func (s *Supervisor) Start(spec ProcessSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return fmt.Errorf("starting child %q: supervisor is shutting down", spec.Name)
	}
	if _, exists := s.children[spec.Name]; exists {
		return fmt.Errorf("child %q already started", spec.Name)
	}

	c := &child{
		spec:   spec,
		stdout: newTagWriter(&s.outputMu, s.output, spec.Name),
		stderr: newTagWriter(&s.outputMu, s.output, spec.Name),
		status: StatusStarting,
	}
	s.children[spec.Name] = c
	s.order = append(s.order, spec.Name)

	if err := s.spawnLocked(c); err != nil {
		delete(s.children, spec.Name)
		s.order = s.order[:len(s.order)-1]
		s.writeStateLocked()
		return fmt.Errorf("starting child %q: %w", spec.Name, err)
	}

	s.wg.Add(1)
	go s.monitor(c)
	return nil
}

// spawnLocked starts a new process for the child and records it. The
// caller holds s.mu. A non-nil error means no process was created.
func (s *Supervisor) spawnLocked(c *child) error {
	cmd := exec.Command(c.spec.Command[0], c.spec.Command[1:]...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	// Each child runs in its own process group so that termination
	// signals reach the whole tree it spawns (negative PID = all
	// processes in the group).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		c.status = StatusFailed
		s.writeStateLocked()
		return err
	}

	if c.cmd != nil {
		c.restarts++
	}
	c.cmd = cmd
	c.pid = cmd.Process.Pid
	c.status = StatusRunning
	c.startedAt = s.clk.Now()
	s.writeStateLocked()

	s.logger.Info("child started",
		"name", c.spec.Name,
		"pid", c.pid,
		"restarts", c.restarts,
	)
	return nil
}

// monitor reaps the child's current process and applies the restart
// policy. Runs until the child stops for good or shutdown begins.
func (s *Supervisor) monitor(c *child) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		cmd := c.cmd
		s.mu.Unlock()

		waitErr := cmd.Wait()

		// The pipes are at EOF once Wait returns, so flushing any
		// unterminated final line cannot race a concurrent write.
		c.stdout.flush()
		c.stderr.flush()

		s.mu.Lock()
		c.status = StatusExited
		stopping := s.stopping
		s.writeStateLocked()
		s.mu.Unlock()

		s.logger.Info("child exited",
			"name", c.spec.Name,
			"pid", c.pid,
			"exit_code", exitCode(waitErr),
		)

		if stopping || c.spec.Restart != RestartAlways {
			return
		}

		// Respawn after the delay. Spawn failures here are runtime
		// errors, not startup failures: log and keep retrying until
		// the spawn succeeds or shutdown begins.
		for {
			if !s.pause(s.restartDelay) {
				return
			}
			s.mu.Lock()
			if s.stopping {
				s.mu.Unlock()
				return
			}
			err := s.spawnLocked(c)
			s.mu.Unlock()
			if err == nil {
				break
			}
			s.logger.Error("restarting child failed",
				"name", c.spec.Name,
				"error", err,
			)
		}
	}
}

// pause sleeps for the given duration on the supervisor's clock.
// Returns false if shutdown begins first.
func (s *Supervisor) pause(duration time.Duration) bool {
	select {
	case <-s.stopCh:
		return false
	case <-s.clk.After(duration):
		return true
	}
}

// StartTask runs fn in a background goroutine. If fn returns a non-nil
// error while its context is still live, it is restarted after the
// restart delay. Returning nil, or returning after the context is
// cancelled, stops the task for good. The context passed to fn is
// derived from ctx and additionally cancelled when the supervisor
// shuts down.
func (s *Supervisor) StartTask(ctx context.Context, name string, fn func(context.Context) error) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	s.cancels = append(s.cancels, cancel)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		for {
			err := fn(taskCtx)
			if taskCtx.Err() != nil {
				s.logger.Info("task stopped", "task", name)
				return
			}
			if err == nil {
				s.logger.Info("task finished", "task", name)
				return
			}
			s.logger.Error("task exited unexpectedly, restarting",
				"task", name,
				"error", err,
			)
			select {
			case <-taskCtx.Done():
				return
			case <-s.clk.After(s.restartDelay):
			}
		}
	}()
}

// Signal delivers sig to the named child's current process. The signal
// goes to the process itself, not its group, so signals with in-process
// meaning (a reload) are not fanned out to workers.
func (s *Supervisor) Signal(name string, sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.children[name]
	if !ok {
		return fmt.Errorf("no child named %q", name)
	}
	if c.status != StatusRunning || c.cmd == nil || c.cmd.Process == nil {
		return fmt.Errorf("child %q is not running", name)
	}
	if err := c.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signaling child %q: %w", name, err)
	}
	return nil
}

// Fail reports a fatal error to the supervisor. The first reported
// error wins and causes Wait to shut everything down and return it.
func (s *Supervisor) Fail(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

// Wait blocks until ctx is cancelled or a fatal error is reported, then
// shuts the supervisor down: every running child's process group gets
// SIGTERM, and whatever has not exited within the grace period is
// force-killed. Returns the fatal error if one triggered the shutdown,
// nil otherwise. A grace-period overrun alone does not make the
// shutdown an error.
func (s *Supervisor) Wait(ctx context.Context) error {
	var reason error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case reason = <-s.fatal:
		s.logger.Error("fatal error, shutting down", "error", reason)
	}

	s.beginShutdown()
	s.terminateChildren()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-s.clk.After(s.gracePeriod):
		s.logger.Warn("grace period elapsed, force killing remaining children",
			"grace_period", s.gracePeriod,
		)
		s.killChildren()
		<-done
	}

	s.removeState()
	if reason != nil {
		return reason
	}
	s.logger.Info("all children stopped")
	return nil
}

// beginShutdown flips the supervisor into the stopping state: restart
// loops stop, new Start/StartTask calls are rejected, and task contexts
// are cancelled.
func (s *Supervisor) beginShutdown() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	close(s.stopCh)
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// terminateChildren sends SIGTERM to every running child's process
// group. Children that already exited are skipped; a group that
// disappeared between the status check and the kill is harmless.
func (s *Supervisor) terminateChildren() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		c := s.children[name]
		if c.status != StatusRunning || c.pid == 0 {
			continue
		}
		s.logger.Info("stopping child", "name", name, "pid", c.pid)
		if err := syscall.Kill(-c.pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			s.logger.Warn("signaling child", "name", name, "error", err)
		}
	}
}

// killChildren sends SIGKILL to every child's process group. Called
// after the grace period expires. Targets every group that was ever
// started, not just those still marked running: an exited child's
// group can still contain descendants holding the output pipes open.
func (s *Supervisor) killChildren() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		c := s.children[name]
		if c.pid == 0 {
			continue
		}
		if err := syscall.Kill(-c.pid, syscall.SIGKILL); err != nil {
			// Process group already gone.
			continue
		}
		s.logger.Warn("force killed child process group", "name", name, "pid", c.pid)
	}
}

// exitCode extracts the exit code from a Wait error. Returns 0 for a
// clean exit and -1 when the process was signaled or Wait failed for a
// non-exit reason.
func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
