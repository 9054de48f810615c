// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"testing"
	"time"
)

// validConfig returns a fully-expanded configuration that passes
// Validate, for tests to perturb.
func validConfig() *Config {
	cfg := Default()
	cfg.Network = ""
	cfg.Node.ExtraOptions = ""
	cfg.Secret.URL = "http://127.0.0.1:8600/jwt"
	cfg.TLS.Certificate = "/certs/fullchain.pem"
	cfg.TLS.Key = "/certs/privkey.pem"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NODEWARD_CONFIG", "")
	t.Setenv("NETWORK", "")
	t.Setenv("EXTRA_OPTIONS", "")
	t.Setenv("JWT_SECRET_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network != "" {
		t.Errorf("expected empty network selector, got %q", cfg.Network)
	}
	if cfg.DataRoot != "/ethereum" {
		t.Errorf("expected data_root=/ethereum, got %q", cfg.DataRoot)
	}
	if cfg.RunDir != "/run/nodeward" {
		t.Errorf("expected run_dir=/run/nodeward, got %q", cfg.RunDir)
	}
	if cfg.Node.Binary != "geth" {
		t.Errorf("expected node.binary=geth, got %q", cfg.Node.Binary)
	}
	if cfg.Node.AuthRPCPort != 8551 {
		t.Errorf("expected node.authrpc_port=8551, got %d", cfg.Node.AuthRPCPort)
	}
	if got := cfg.Secret.RetryInterval.Std(); got != 5*time.Second {
		t.Errorf("expected secret.retry_interval=5s, got %v", got)
	}
	if cfg.Proxy.Binary != "nginx" {
		t.Errorf("expected proxy.binary=nginx, got %q", cfg.Proxy.Binary)
	}
	if want := []string{"-g", "daemon off;"}; !slices.Equal(cfg.Proxy.Options, want) {
		t.Errorf("expected proxy.options=%q, got %q", want, cfg.Proxy.Options)
	}
	if cfg.Proxy.ReloadSignal != "SIGHUP" {
		t.Errorf("expected proxy.reload_signal=SIGHUP, got %q", cfg.Proxy.ReloadSignal)
	}
	if got := cfg.Shutdown.GracePeriod.Std(); got != 120*time.Second {
		t.Errorf("expected shutdown.grace_period=120s, got %v", got)
	}
	if got := cfg.Shutdown.RestartDelay.Std(); got != time.Second {
		t.Errorf("expected shutdown.restart_delay=1s, got %v", got)
	}
}

func TestLoadReadsEnvironmentInterface(t *testing.T) {
	// The historical container interface: NETWORK and EXTRA_OPTIONS
	// environment variables, no config file.
	t.Setenv("NODEWARD_CONFIG", "")
	t.Setenv("NETWORK", "holesky")
	t.Setenv("EXTRA_OPTIONS", "--rpcapi=eth,net --cache 4096")
	t.Setenv("JWT_SECRET_URL", "http://secrets.internal/jwt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network != "holesky" {
		t.Errorf("expected network=holesky from environment, got %q", cfg.Network)
	}
	if cfg.Node.ExtraOptions != "--rpcapi=eth,net --cache 4096" {
		t.Errorf("extra options not taken from environment: %q", cfg.Node.ExtraOptions)
	}
	if cfg.Secret.URL != "http://secrets.internal/jwt" {
		t.Errorf("secret URL not taken from environment: %q", cfg.Secret.URL)
	}
}

func TestLoadWithNodewardConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nodeward.yaml")
	configContent := `
network: goerli
data_root: /test/root
secret:
  url: http://127.0.0.1:9999/jwt
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("NODEWARD_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network != "goerli" {
		t.Errorf("expected network=goerli, got %q", cfg.Network)
	}
	if cfg.DataRoot != "/test/root" {
		t.Errorf("expected data_root=/test/root, got %q", cfg.DataRoot)
	}
	if cfg.Secret.URL != "http://127.0.0.1:9999/jwt" {
		t.Errorf("expected file secret URL, got %q", cfg.Secret.URL)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nodeward.yaml")
	configContent := `
network: holesky
run_dir: /custom/run
bin_dir: /opt/node/bin

node:
  binary: /usr/local/bin/geth
  authrpc_port: 9551
  extra_options: "--syncmode snap"

secret:
  url: http://127.0.0.1:8600/jwt
  retry_interval: 7s
  request_timeout: 3s

proxy:
  binary: /usr/sbin/nginx
  options: ["-c", "/etc/nginx/nodeward.conf", "-g", "daemon off;"]
  reload_signal: SIGUSR1

tls:
  certificate: /certs/fullchain.pem
  key: /certs/privkey.pem
  poll_interval: 500ms

shutdown:
  grace_period: 30s
  restart_delay: 2s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Network != "holesky" {
		t.Errorf("network = %q, want holesky", cfg.Network)
	}
	if cfg.DataRoot != "/ethereum" {
		t.Errorf("absent data_root should keep default, got %q", cfg.DataRoot)
	}
	if cfg.RunDir != "/custom/run" {
		t.Errorf("run_dir = %q, want /custom/run", cfg.RunDir)
	}
	if cfg.BinDir != "/opt/node/bin" {
		t.Errorf("bin_dir = %q, want /opt/node/bin", cfg.BinDir)
	}
	if cfg.Node.Binary != "/usr/local/bin/geth" {
		t.Errorf("node.binary = %q", cfg.Node.Binary)
	}
	if cfg.Node.AuthRPCPort != 9551 {
		t.Errorf("node.authrpc_port = %d, want 9551", cfg.Node.AuthRPCPort)
	}
	if cfg.Node.ExtraOptions != "--syncmode snap" {
		t.Errorf("node.extra_options = %q", cfg.Node.ExtraOptions)
	}
	if got := cfg.Secret.RetryInterval.Std(); got != 7*time.Second {
		t.Errorf("secret.retry_interval = %v, want 7s", got)
	}
	if got := cfg.Secret.RequestTimeout.Std(); got != 3*time.Second {
		t.Errorf("secret.request_timeout = %v, want 3s", got)
	}
	if cfg.Proxy.ReloadSignal != "SIGUSR1" {
		t.Errorf("proxy.reload_signal = %q, want SIGUSR1", cfg.Proxy.ReloadSignal)
	}
	if want := []string{"-c", "/etc/nginx/nodeward.conf", "-g", "daemon off;"}; !slices.Equal(cfg.Proxy.Options, want) {
		t.Errorf("proxy.options = %q, want %q", cfg.Proxy.Options, want)
	}
	if got := cfg.TLS.PollInterval.Std(); got != 500*time.Millisecond {
		t.Errorf("tls.poll_interval = %v, want 500ms", got)
	}
	if got := cfg.Shutdown.GracePeriod.Std(); got != 30*time.Second {
		t.Errorf("shutdown.grace_period = %v, want 30s", got)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nodeward.yaml")
	configContent := `
secret:
  url: http://127.0.0.1:8600/jwt
  retry_interval: fast
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestFileValuesWinOverEnvironment(t *testing.T) {
	// A literal file value is never overridden by the environment;
	// only explicit ${VAR} references consult it.
	t.Setenv("NETWORK", "holesky")

	configPath := filepath.Join(t.TempDir(), "nodeward.yaml")
	configContent := `
network: goerli
secret:
  url: http://127.0.0.1:8600/jwt
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Network != "goerli" {
		t.Errorf("file value should win over environment, got %q", cfg.Network)
	}
}

func TestFileValuesMayReferenceEnvironment(t *testing.T) {
	t.Setenv("NETWORK", "holesky")

	configPath := filepath.Join(t.TempDir(), "nodeward.yaml")
	configContent := `
network: "${NETWORK:-mainnet}"
data_root: /chain
run_dir: "${DATA_ROOT}/run"
secret:
  url: http://127.0.0.1:8600/jwt
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Network != "holesky" {
		t.Errorf("expected ${NETWORK} expansion, got %q", cfg.Network)
	}
	if cfg.RunDir != "/chain/run" {
		t.Errorf("expected ${DATA_ROOT} expansion, got %q", cfg.RunDir)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/nodeward",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/nodeward",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "watcher-less variant is valid",
			modify: func(c *Config) {
				c.TLS.Certificate = ""
				c.TLS.Key = ""
			},
			wantErr: false,
		},
		{
			name: "empty data_root",
			modify: func(c *Config) {
				c.DataRoot = ""
			},
			wantErr: true,
		},
		{
			name: "empty run_dir",
			modify: func(c *Config) {
				c.RunDir = ""
			},
			wantErr: true,
		},
		{
			name: "empty node binary",
			modify: func(c *Config) {
				c.Node.Binary = ""
			},
			wantErr: true,
		},
		{
			name: "authrpc port zero",
			modify: func(c *Config) {
				c.Node.AuthRPCPort = 0
			},
			wantErr: true,
		},
		{
			name: "authrpc port too large",
			modify: func(c *Config) {
				c.Node.AuthRPCPort = 70000
			},
			wantErr: true,
		},
		{
			name: "missing secret URL",
			modify: func(c *Config) {
				c.Secret.URL = ""
			},
			wantErr: true,
		},
		{
			name: "zero retry interval",
			modify: func(c *Config) {
				c.Secret.RetryInterval = 0
			},
			wantErr: true,
		},
		{
			name: "empty proxy binary",
			modify: func(c *Config) {
				c.Proxy.Binary = ""
			},
			wantErr: true,
		},
		{
			name: "unrecognized reload signal",
			modify: func(c *Config) {
				c.Proxy.ReloadSignal = "SIGBOGUS"
			},
			wantErr: true,
		},
		{
			name: "certificate without key",
			modify: func(c *Config) {
				c.TLS.Key = ""
			},
			wantErr: true,
		},
		{
			name: "key without certificate",
			modify: func(c *Config) {
				c.TLS.Certificate = ""
			},
			wantErr: true,
		},
		{
			name: "zero poll interval",
			modify: func(c *Config) {
				c.TLS.PollInterval = 0
			},
			wantErr: true,
		},
		{
			name: "negative grace period",
			modify: func(c *Config) {
				c.Shutdown.GracePeriod = Duration(-time.Second)
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validConfig()
			test.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestWatcherEnabled(t *testing.T) {
	cfg := validConfig()
	if !cfg.WatcherEnabled() {
		t.Error("expected watcher enabled with both TLS paths set")
	}

	cfg.TLS.Certificate = ""
	cfg.TLS.Key = ""
	if cfg.WatcherEnabled() {
		t.Error("expected watcher disabled with both TLS paths empty")
	}
}

func TestProxySignal(t *testing.T) {
	tests := []struct {
		name string
		want syscall.Signal
	}{
		{"SIGHUP", syscall.SIGHUP},
		{"SIGUSR1", syscall.SIGUSR1},
		{"SIGUSR2", syscall.SIGUSR2},
	}

	for _, test := range tests {
		proxy := ProxyConfig{ReloadSignal: test.name}
		if got := proxy.Signal(); got != test.want {
			t.Errorf("Signal(%s) = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	base := t.TempDir()
	cfg := validConfig()
	cfg.DataRoot = filepath.Join(base, "ethereum")
	cfg.RunDir = filepath.Join(base, "run", "nodeward")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}

	for _, path := range []string{cfg.DataRoot, cfg.RunDir} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}

func TestBinaryPath(t *testing.T) {
	t.Run("bin_dir hit", func(t *testing.T) {
		binDir := t.TempDir()
		binary := filepath.Join(binDir, "geth")
		if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg := validConfig()
		cfg.BinDir = binDir
		got, err := cfg.BinaryPath("geth")
		if err != nil {
			t.Fatalf("BinaryPath: %v", err)
		}
		if got != binary {
			t.Errorf("BinaryPath = %q, want %q", got, binary)
		}
	})

	t.Run("falls back to PATH", func(t *testing.T) {
		cfg := validConfig()
		cfg.BinDir = t.TempDir() // empty, forces fallback
		got, err := cfg.BinaryPath("sh")
		if err != nil {
			t.Fatalf("BinaryPath: %v", err)
		}
		if got == "" {
			t.Error("expected a resolved path for sh")
		}
	})

	t.Run("missing binary", func(t *testing.T) {
		cfg := validConfig()
		cfg.BinDir = t.TempDir()
		if _, err := cfg.BinaryPath("definitely-not-a-real-binary"); err == nil {
			t.Error("expected error for missing binary")
		}
	})

	t.Run("absolute path exists", func(t *testing.T) {
		binary := filepath.Join(t.TempDir(), "node-binary")
		if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg := validConfig()
		got, err := cfg.BinaryPath(binary)
		if err != nil {
			t.Fatalf("BinaryPath: %v", err)
		}
		if got != binary {
			t.Errorf("BinaryPath = %q, want %q", got, binary)
		}
	})

	t.Run("absolute path missing", func(t *testing.T) {
		cfg := validConfig()
		if _, err := cfg.BinaryPath("/no/such/binary"); err == nil {
			t.Error("expected error for missing absolute path")
		}
	})

	t.Run("non-executable file rejected", func(t *testing.T) {
		binary := filepath.Join(t.TempDir(), "geth")
		if err := os.WriteFile(binary, []byte("not a program"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg := validConfig()
		_, err := cfg.BinaryPath(binary)
		if err == nil {
			t.Fatal("expected error for non-executable file")
		}
		if !strings.Contains(err.Error(), "not executable") {
			t.Errorf("error %q does not name the executable bit", err)
		}
	})

	t.Run("bin_dir entry must be executable, no PATH fallback", func(t *testing.T) {
		binDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(binDir, "sh"), []byte("broken"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg := validConfig()
		cfg.BinDir = binDir
		if _, err := cfg.BinaryPath("sh"); err == nil {
			t.Error("broken bin_dir entry fell through to the PATH copy of sh")
		}
	})

	t.Run("directory rejected", func(t *testing.T) {
		cfg := validConfig()
		if _, err := cfg.BinaryPath(t.TempDir()); err == nil {
			t.Error("expected error for a directory path")
		}
	})
}
