// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Nodeward unit.
//
// Configuration is loaded from a single YAML file specified by:
//   - NODEWARD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// When neither is set, the built-in defaults apply. The defaults
// reference the environment variables the unit has historically been
// driven by (NETWORK, EXTRA_OPTIONS, JWT_SECRET_URL, TLS_CERTIFICATE,
// TLS_KEY) through ${VAR:-default} expansion, so a file-less container
// deployment keeps working while every value remains overridable from
// one explicit place.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "5s" or "2m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Config is the master configuration for the Nodeward unit.
type Config struct {
	// Network is the network selector consumed by the profile
	// resolver. Any value is accepted; unrecognized values select
	// mainnet.
	Network string `yaml:"network"`

	// DataRoot is the node data directory used when the selector
	// resolves to mainnet.
	DataRoot string `yaml:"data_root"`

	// RunDir is where runtime state (the supervisor state file) is
	// kept.
	RunDir string `yaml:"run_dir"`

	// BinDir, when set, is checked for managed binaries before
	// falling back to PATH lookup. This provides hermetic binary
	// paths in packaged images.
	BinDir string `yaml:"bin_dir"`

	// Node configures the blockchain node child.
	Node NodeConfig `yaml:"node"`

	// Secret configures authentication secret provisioning.
	Secret SecretConfig `yaml:"secret"`

	// Proxy configures the TLS-terminating reverse proxy child.
	Proxy ProxyConfig `yaml:"proxy"`

	// TLS configures certificate rotation watching.
	TLS TLSConfig `yaml:"tls"`

	// Shutdown configures termination behavior.
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// NodeConfig configures the blockchain node child process.
type NodeConfig struct {
	// Binary is the node executable, a bare name resolved via
	// BinaryPath or an absolute path.
	Binary string `yaml:"binary"`

	// AuthRPCPort is the authenticated RPC listening port.
	AuthRPCPort int `yaml:"authrpc_port"`

	// ExtraOptions is a raw pass-through option string appended to
	// the node command line after normalization. Split on
	// whitespace, matching the unquoted shell expansion the option
	// string has always received.
	ExtraOptions string `yaml:"extra_options"`
}

// SecretConfig configures retrieval of the node's authenticated-RPC
// credential.
type SecretConfig struct {
	// URL is the HTTP GET endpoint returning the raw secret bytes.
	URL string `yaml:"url"`

	// RetryInterval is the fixed delay between fetch attempts.
	RetryInterval Duration `yaml:"retry_interval"`

	// RequestTimeout bounds a single fetch attempt.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// ProxyConfig configures the reverse proxy child process.
type ProxyConfig struct {
	// Binary is the proxy executable.
	Binary string `yaml:"binary"`

	// Options are the proxy's command-line arguments.
	Options []string `yaml:"options"`

	// ReloadSignal is the signal name (e.g. "SIGHUP") that makes
	// the proxy reload its TLS configuration without dropping
	// connections.
	ReloadSignal string `yaml:"reload_signal"`
}

// TLSConfig configures certificate rotation watching. When both paths
// are empty the watcher is not started and the proxy serves whatever
// its own configuration references.
type TLSConfig struct {
	// Certificate is the path to the PEM certificate file.
	Certificate string `yaml:"certificate"`

	// Key is the path to the PEM private key file.
	Key string `yaml:"key"`

	// PollInterval is how often the watcher fingerprints the pair.
	PollInterval Duration `yaml:"poll_interval"`
}

// ShutdownConfig configures termination behavior.
type ShutdownConfig struct {
	// GracePeriod is how long children get between the graceful
	// stop signal and force kill.
	GracePeriod Duration `yaml:"grace_period"`

	// RestartDelay is the pause before respawning an exited child.
	RestartDelay Duration `yaml:"restart_delay"`
}

// Default returns the default configuration. The ${VAR:-} references
// are resolved against the process environment at load time, keeping
// the unit's historical environment-variable interface alive.
func Default() *Config {
	return &Config{
		Network:  "${NETWORK:-}",
		DataRoot: "/ethereum",
		RunDir:   "/run/nodeward",
		BinDir:   "",
		Node: NodeConfig{
			Binary:       "geth",
			AuthRPCPort:  8551,
			ExtraOptions: "${EXTRA_OPTIONS:-}",
		},
		Secret: SecretConfig{
			URL:            "${JWT_SECRET_URL:-}",
			RetryInterval:  Duration(5 * time.Second),
			RequestTimeout: Duration(10 * time.Second),
		},
		Proxy: ProxyConfig{
			Binary:       "nginx",
			Options:      []string{"-g", "daemon off;"},
			ReloadSignal: "SIGHUP",
		},
		TLS: TLSConfig{
			Certificate:  "${TLS_CERTIFICATE:-}",
			Key:          "${TLS_KEY:-}",
			PollInterval: Duration(2 * time.Second),
		},
		Shutdown: ShutdownConfig{
			GracePeriod:  Duration(120 * time.Second),
			RestartDelay: Duration(time.Second),
		},
	}
}

// Load loads configuration from the NODEWARD_CONFIG environment
// variable if set, and from the built-in defaults otherwise. In both
// cases ${VAR:-default} references are expanded.
func Load() (*Config, error) {
	if path := os.Getenv("NODEWARD_CONFIG"); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path. Values
// absent from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in every
// string field that may reference the environment. DataRoot is
// expanded first so dependent paths can reference ${DATA_ROOT}.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DATA_ROOT": c.DataRoot,
		"HOME":      os.Getenv("HOME"),
	}

	c.DataRoot = expandVars(c.DataRoot, vars)
	vars["DATA_ROOT"] = c.DataRoot

	c.Network = expandVars(c.Network, vars)
	c.RunDir = expandVars(c.RunDir, vars)
	c.BinDir = expandVars(c.BinDir, vars)
	c.Node.Binary = expandVars(c.Node.Binary, vars)
	c.Node.ExtraOptions = expandVars(c.Node.ExtraOptions, vars)
	c.Secret.URL = expandVars(c.Secret.URL, vars)
	c.Proxy.Binary = expandVars(c.Proxy.Binary, vars)
	for i, option := range c.Proxy.Options {
		c.Proxy.Options[i] = expandVars(option, vars)
	}
	c.TLS.Certificate = expandVars(c.TLS.Certificate, vars)
	c.TLS.Key = expandVars(c.TLS.Key, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.DataRoot == "" {
		errs = append(errs, fmt.Errorf("data_root is required"))
	}
	if c.RunDir == "" {
		errs = append(errs, fmt.Errorf("run_dir is required"))
	}

	if c.Node.Binary == "" {
		errs = append(errs, fmt.Errorf("node.binary is required"))
	}
	if c.Node.AuthRPCPort < 1 || c.Node.AuthRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("node.authrpc_port %d outside 1-65535", c.Node.AuthRPCPort))
	}

	if c.Secret.URL == "" {
		errs = append(errs, fmt.Errorf("secret.url is required (set JWT_SECRET_URL or secret.url)"))
	}
	if c.Secret.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("secret.retry_interval must be positive"))
	}
	if c.Secret.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("secret.request_timeout must be positive"))
	}

	if c.Proxy.Binary == "" {
		errs = append(errs, fmt.Errorf("proxy.binary is required"))
	}
	if unix.SignalNum(c.Proxy.ReloadSignal) == 0 {
		errs = append(errs, fmt.Errorf("proxy.reload_signal %q is not a recognized signal name", c.Proxy.ReloadSignal))
	}

	if (c.TLS.Certificate == "") != (c.TLS.Key == "") {
		errs = append(errs, fmt.Errorf("tls.certificate and tls.key must be set together"))
	}
	if c.TLS.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("tls.poll_interval must be positive"))
	}

	if c.Shutdown.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("shutdown.grace_period must not be negative"))
	}
	if c.Shutdown.RestartDelay < 0 {
		errs = append(errs, fmt.Errorf("shutdown.restart_delay must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WatcherEnabled reports whether certificate rotation watching is
// configured.
func (c *Config) WatcherEnabled() bool {
	return c.TLS.Certificate != "" && c.TLS.Key != ""
}

// Signal returns the parsed reload signal. Validate has already
// rejected unrecognized names.
func (p *ProxyConfig) Signal() syscall.Signal {
	return unix.SignalNum(p.ReloadSignal)
}

// EnsurePaths creates the configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.DataRoot, c.RunDir} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// BinaryPath returns the full path to a managed binary. It looks in
// BinDir first, then falls back to exec.LookPath. Absolute paths are
// used as-is. The resolved file must be a regular executable: naming
// the packaging defect here beats a bare spawn error later.
func (c *Config) BinaryPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		if err := checkExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}

	// A file present in BinDir is the managed binary, even if broken;
	// it does not fall through to PATH.
	if c.BinDir != "" {
		binPath := filepath.Join(c.BinDir, name)
		if _, err := os.Stat(binPath); err == nil {
			if err := checkExecutable(binPath); err != nil {
				return "", err
			}
			return binPath, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		if c.BinDir != "" {
			return "", fmt.Errorf("%s not found in %s or PATH", name, c.BinDir)
		}
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	return path, nil
}

// checkExecutable verifies that path names a regular file with an
// executable bit set.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file (mode %s)", path, info.Mode())
	}
	if info.Mode()&0111 == 0 {
		return fmt.Errorf("%s is not executable (mode %s)", path, info.Mode())
	}
	return nil
}
