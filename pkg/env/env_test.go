package env

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type nested struct {
	Addr string `env:"TEST_ENV_ADDR" env-default:":8080"`
}

type config struct {
	Token    string        `env:"TEST_ENV_TOKEN,required"`
	Offset   int           `env:"TEST_ENV_OFFSET" env-default:"20"`
	Ratio    float64       `env:"TEST_ENV_RATIO" env-default:"0.5"`
	Verbose  bool          `env:"TEST_ENV_VERBOSE"`
	Limit    uint16        `env:"TEST_ENV_LIMIT" env-default:"0x10"`
	TTL      time.Duration `env:"TEST_ENV_TTL" env-default:"20m"`
	Level    slog.Level    `env:"TEST_ENV_LEVEL" env-default:"INFO"`
	Optional *int          `env:"TEST_ENV_OPTIONAL" env-default:"7"`
	Web      nested
	ignored  string
}

func TestReadDefaults(t *testing.T) {
	t.Setenv("TEST_ENV_TOKEN", "secret")

	var cfg config
	if err := Read(&cfg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if cfg.Token != "secret" {
		t.Errorf("Expected token %q, got %q", "secret", cfg.Token)
	}
	if cfg.Offset != 20 {
		t.Errorf("Expected offset 20, got %d", cfg.Offset)
	}
	if cfg.Ratio != 0.5 {
		t.Errorf("Expected ratio 0.5, got %v", cfg.Ratio)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to stay false without a value or default")
	}
	if cfg.Limit != 16 {
		t.Errorf("Expected limit 16, got %d", cfg.Limit)
	}
	if cfg.TTL != 20*time.Minute {
		t.Errorf("Expected TTL 20m, got %v", cfg.TTL)
	}
	if cfg.Level != slog.LevelInfo {
		t.Errorf("Expected level INFO, got %v", cfg.Level)
	}
	if cfg.Optional == nil || *cfg.Optional != 7 {
		t.Errorf("Expected optional 7, got %v", cfg.Optional)
	}
	if cfg.Web.Addr != ":8080" {
		t.Errorf("Expected nested addr %q, got %q", ":8080", cfg.Web.Addr)
	}
}

func TestReadOverrides(t *testing.T) {
	t.Setenv("TEST_ENV_TOKEN", "secret")
	t.Setenv("TEST_ENV_OFFSET", "3")
	t.Setenv("TEST_ENV_VERBOSE", "true")
	t.Setenv("TEST_ENV_TTL", "90s")
	t.Setenv("TEST_ENV_LEVEL", "DEBUG")
	t.Setenv("TEST_ENV_ADDR", "127.0.0.1:9000")

	var cfg config
	if err := Read(&cfg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if cfg.Offset != 3 || !cfg.Verbose || cfg.TTL != 90*time.Second {
		t.Errorf("Unexpected overrides: %+v", cfg)
	}
	if cfg.Level != slog.LevelDebug {
		t.Errorf("Expected level DEBUG, got %v", cfg.Level)
	}
	if cfg.Web.Addr != "127.0.0.1:9000" {
		t.Errorf("Expected nested addr override, got %q", cfg.Web.Addr)
	}
}

func TestReadErrors(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		var cfg config
		if err := Read(&cfg); !errors.Is(err, ErrRequired) {
			t.Errorf("Expected ErrRequired, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		t.Setenv("TEST_ENV_TOKEN", "secret")
		t.Setenv("TEST_ENV_OFFSET", "twenty")

		var cfg config
		if err := Read(&cfg); err == nil {
			t.Error("Expected error for malformed integer")
		}
	})

	t.Run("not a pointer", func(t *testing.T) {
		if err := Read(config{}); !errors.Is(err, ErrNotStruct) {
			t.Errorf("Expected ErrNotStruct, got %v", err)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Setenv("TEST_ENV_LIST", "a,b")

		var cfg struct {
			List []string `env:"TEST_ENV_LIST"`
		}
		if err := Read(&cfg); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Expected ErrUnsupported, got %v", err)
		}
	})
}

func TestTagOptions(t *testing.T) {
	name, options := parseTag("NAME,optional,required")
	if name != "NAME" {
		t.Errorf("Expected name %q, got %q", "NAME", name)
	}
	if !options.Contains("required") || options.Contains("missing") {
		t.Errorf("Unexpected options %q", options)
	}
}
