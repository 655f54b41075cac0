package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/kbukum/dataflow/errors"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Loader        struct {
		BufferSize int `mapstructure:"buffer_size"`
		BlockSize  int `mapstructure:"block_size"`
	} `mapstructure:"loader"`
}

func writeFile(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// unsetForTest removes key for the rest of the test. Call t.Setenv first so
// the original value is restored on cleanup.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug || cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging for development, got debug=%v level=%q", cfg.Debug, cfg.Logging.Level)
		}
		if cfg.Telemetry.Endpoint != "localhost:4318" || cfg.Telemetry.MetricInterval != 15*time.Second {
			t.Errorf("unexpected telemetry defaults %+v", cfg.Telemetry)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug || cfg.Logging.Level != "info" {
			t.Errorf("expected info logging for production, got debug=%v level=%q", cfg.Debug, cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr string
	}{
		{"valid", func(*ServiceConfig) {}, ""},
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, "name: is required"},
		{"invalid environment", func(c *ServiceConfig) { c.Environment = "qa" }, "environment: must be one of"},
		{"bad sample rate", func(c *ServiceConfig) { c.Telemetry.SampleRate = 2 }, "telemetry.sample_rate: must be at most 1"},
		{"bad endpoint", func(c *ServiceConfig) { c.Telemetry.Endpoint = "nope" }, "telemetry.endpoint: must be host:port"},
		{"bad log level", func(c *ServiceConfig) { c.Logging.Level = "loud" }, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ServiceConfig{Name: "svc", Environment: "staging"}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/dataflow.yml", `
name: dataflow
environment: staging
telemetry:
  metric_interval: 30s
loader:
  buffer_size: 64
  block_size: 32
`)

	var cfg testConfig
	if err := LoadConfig("dataflow", &cfg, WithFs(fs), WithConfigFile("/etc/dataflow.yml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "dataflow" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Loader.BufferSize != 64 || cfg.Loader.BlockSize != 32 {
		t.Errorf("unexpected loader config %+v", cfg.Loader)
	}
	if cfg.Telemetry.MetricInterval != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", cfg.Telemetry.MetricInterval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("dataflow", &cfg, WithFs(afero.NewMemMapFs()), WithConfigFile("/nonexistent.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yml", "loader:\n  buffer_size: 10\n")
	t.Setenv("DATAFLOW_LOADER_BUFFER_SIZE", "99")

	var cfg testConfig
	if err := LoadConfig("dataflow", &cfg, WithFs(fs), WithConfigFile("/c.yml")); err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.BufferSize != 99 {
		t.Errorf("expected env override 99, got %d", cfg.Loader.BufferSize)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/app/.env", "DATAFLOW_LOADER_BLOCK_SIZE=7\n")
	t.Setenv("DATAFLOW_LOADER_BLOCK_SIZE", "")
	unsetForTest(t, "DATAFLOW_LOADER_BLOCK_SIZE")

	var cfg testConfig
	if err := LoadConfig("dataflow", &cfg, WithFs(fs), WithEnvFile("/app/.env")); err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.BlockSize != 7 {
		t.Errorf("expected block size from .env, got %d", cfg.Loader.BlockSize)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yml", "loader:\n  buffer_size: 10\n  block_size: 5\n")
	t.Setenv("DATAFLOW_LOADER_BUFFER_SIZE", "20")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("buffer-size", 1000, "")
	flags.Int("block-size", 1000, "")
	if err := flags.Parse([]string{"--buffer-size=30"}); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	err := LoadConfig("dataflow", &cfg, WithFs(fs), WithConfigFile("/c.yml"), WithFlags(flags, map[string]string{
		"loader.buffer_size": "buffer-size",
		"loader.block_size":  "block-size",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.BufferSize != 30 {
		t.Errorf("expected changed flag to win, got %d", cfg.Loader.BufferSize)
	}
	if cfg.Loader.BlockSize != 5 {
		t.Errorf("expected file value over flag default, got %d", cfg.Loader.BlockSize)
	}
}

func TestLoadConfigUnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var cfg testConfig
	err := LoadConfig("dataflow", &cfg, WithFs(afero.NewMemMapFs()),
		WithFlags(flags, map[string]string{"loader.buffer_size": "missing"}))
	if err == nil || !strings.Contains(err.Error(), "unknown flag --missing") {
		t.Errorf("expected unknown flag error, got %v", err)
	}
}

func TestLoadGeneric(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yml", "name: dataflow\nenvironment: nowhere\n")

	_, err := Load[ServiceConfig]("dataflow", WithFs(fs), WithConfigFile("/c.yml"))
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	writeFile(t, fs, "/c.yml", "name: dataflow\n")
	cfg, err := Load[ServiceConfig]("dataflow", WithFs(fs), WithConfigFile("/c.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got %q", cfg.Environment)
	}
}

func TestResolverSearchesStandardPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "./cmd/dataflow/config.yml", "name: x\n")
	writeFile(t, fs, "./.env", "")

	files := (&Resolver{Fs: fs}).ResolveFiles("dataflow", LoaderConfig{})
	if files.ConfigFile != "./cmd/dataflow/config.yml" {
		t.Errorf("expected config file at ./cmd/dataflow/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected env file ./.env, got %q", files.EnvFile)
	}

	explicit := (&Resolver{Fs: fs}).ResolveFiles("dataflow", LoaderConfig{ConfigFile: "/x.yml"})
	if explicit.ConfigFile != "/x.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("LOADER_BUFFER_SIZE")
	for _, want := range []string{"loader.buffer_size", "loader.buffer.size", "loader_buffer_size", "loader_buffer.size"} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if single := generateEnvKeyVariants("NAME"); len(single) != 1 || single[0] != "name" {
		t.Errorf("unexpected variants %v", single)
	}
}

func TestConverters(t *testing.T) {
	cfg := ServiceConfig{Name: "dataflow", Version: "v1", Environment: "production"}
	cfg.ApplyDefaults()
	tc := cfg.TracerConfig()
	mc := cfg.MeterConfig()
	if tc.ServiceName != "dataflow" || tc.SampleRate != 1.0 || tc.Endpoint != "localhost:4318" {
		t.Errorf("unexpected tracer config %+v", tc)
	}
	if mc.Interval != 15*time.Second || mc.ServiceVersion != "v1" {
		t.Errorf("unexpected meter config %+v", mc)
	}
}
