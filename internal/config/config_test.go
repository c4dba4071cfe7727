package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv removes keys for the duration of the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

var configEnvKeys = []string{
	"PORT", "HOST", "LOG_LEVEL", "APP_VERSION", "SHUTDOWN_GRACE_PERIOD",
	"READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENABLE_REQUEST_LOGGING",
	"ENABLE_METRICS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT_BYTES",
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, configEnvKeys...)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.Address() != ":3001" {
		t.Fatalf("expected address :3001, got %s", cfg.Address())
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.EnableRequestLogging || !cfg.EnableMetrics {
		t.Fatalf("expected request logging and metrics enabled by default")
	}
}

func TestLoadEmptyPortFallsBackToDefault(t *testing.T) {
	unsetEnv(t, configEnvKeys...)
	t.Setenv("PORT", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port for empty PORT, got %d", cfg.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	unsetEnv(t, configEnvKeys...)
	t.Setenv("PORT", "5000")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "3s")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("RATE_LIMIT_BURST", "4")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 5000 {
		t.Fatalf("expected overridden port, got %d", cfg.Port)
	}
	if cfg.Address() != "127.0.0.1:5000" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if cfg.ShutdownGracePeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.EnableMetrics {
		t.Fatalf("expected metrics to be disabled")
	}
	if cfg.RateLimitRPS != 12.5 || cfg.RateLimitBurst != 4 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":             "http",
		"RATE_LIMIT_BURST": "-1",
		"BODY_LIMIT_BYTES": "0",
		"LOG_LEVEL":        "chatty",
		"WRITE_TIMEOUT":    "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			unsetEnv(t, configEnvKeys...)
			t.Setenv(key, value)

			if _, err := Load(nil); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}

	t.Run("port out of range", func(t *testing.T) {
		unsetEnv(t, configEnvKeys...)
		t.Setenv("PORT", "70000")

		if _, err := Load(nil); err == nil {
			t.Fatalf("expected error for out of range port")
		}
	})
}

func TestLoadYAMLFile(t *testing.T) {
	unsetEnv(t, configEnvKeys...)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`port: 4100
host: 0.0.0.0
log_level: debug
write_timeout: 2s
enable_request_logging: false
rate_limit:
  rps: 5
  burst: 10
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 4100 || cfg.Host != "0.0.0.0" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected values from YAML: %+v", cfg)
	}
	if cfg.WriteTimeout != 2*time.Second {
		t.Fatalf("unexpected write timeout %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled by YAML")
	}
	if !cfg.EnableMetrics {
		t.Fatalf("expected metrics default to survive a YAML file without the key")
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	t.Setenv("PORT", "4200")
	cfg, err = Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != 4200 {
		t.Fatalf("expected environment to win over YAML, got %d", cfg.Port)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	unsetEnv(t, configEnvKeys...)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing YAML file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("idle_timeout: forever\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestCLIOverridesWin(t *testing.T) {
	unsetEnv(t, configEnvKeys...)
	t.Setenv("PORT", "5000")
	t.Setenv("LOG_LEVEL", "warn")

	port := "6000"
	level := "error"
	rps := 3.0
	burst := 0
	cfg, err := Load(&CLIOverrides{Port: &port, LogLevel: &level, RateLimitRPS: &rps, RateLimitBurst: &burst})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 6000 {
		t.Fatalf("expected flag port, got %d", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected flag log level, got %s", cfg.LogLevel)
	}
	if cfg.RateLimitRPS != 3 || cfg.RateLimitBurst != 0 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	bad := "eighty"
	if _, err := Load(&CLIOverrides{Port: &bad}); err == nil {
		t.Fatalf("expected error for invalid port flag")
	}
}

func TestParsePort(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parsePort(" 8080 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Fatalf("unexpected port: %d", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := parsePort("abc"); err == nil {
			t.Fatalf("expected error for non-numeric port")
		}
		if _, err := parsePort("-1"); err == nil {
			t.Fatalf("expected error for negative port")
		}
	})
}
