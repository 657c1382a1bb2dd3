package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turbekoff/calcpad/pkg/env"
)

var (
	ErrClosed         = errors.New("calcpad has closed")
	ErrAlreadyStarted = errors.New("calcpad already started")
)

type Mode string

const (
	ModeTelegram Mode = "telegram"
	ModeTerminal Mode = "terminal"
	ModeWeb      Mode = "web"
)

func (m *Mode) UnmarshalText(text []byte) error {
	switch mode := Mode(text); mode {
	case ModeTelegram, ModeTerminal, ModeWeb:
		*m = mode
		return nil
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
}

type Config struct {
	Mode                    Mode          `env:"CALCPAD_MODE" env-default:"telegram"`
	LogLevel                slog.Level    `env:"CALCPAD_LOG_LEVEL" env-default:"INFO"`
	LogFile                 string        `env:"CALCPAD_LOG_FILE"`
	BotToken                string        `env:"CALCPAD_TELEGRAM_TOKEN"`
	BotOffset               int           `env:"CALCPAD_TELEGRAM_OFFSET" env-default:"20"`
	BotTimeout              int           `env:"CALCPAD_TELEGRAM_TIMEOUT" env-default:"60"`
	MemcachedTTLTimeout     time.Duration `env:"CALCPAD_MEMCACHED_TTL_TIMEOUT" env-default:"20m"`
	MemcachedCleanupTimeout time.Duration `env:"CALCPAD_MEMCACHED_CLEANUP_TIMEOUT" env-default:"1m"`
	WebAddr                 string        `env:"CALCPAD_WEB_ADDR" env-default:":8080"`
	ShutdownTimeout         time.Duration `env:"CALCPAD_SHUTDOWN_TIMEOUT" env-default:"2m"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Read(&cfg); err != nil {
		return nil, err
	}

	if cfg.Mode == ModeTelegram && cfg.BotToken == "" {
		return nil, errors.New("CALCPAD_TELEGRAM_TOKEN is required in telegram mode")
	}
	return &cfg, nil
}

// newLogger writes to CALCPAD_LOG_FILE when set. The terminal keypad owns
// stderr, so without a file it logs nowhere.
func newLogger(config *Config) (*slog.Logger, func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)

	switch {
	case config.LogFile != "":
		f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, f.Close
	case config.Mode == ModeTerminal:
		w = io.Discard
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.LogLevel})
	return slog.New(handler), closeFn, nil
}

type runner interface {
	Run() error
	Shutdown(ctx context.Context) error
}

func newRunner(config *Config, logger *slog.Logger) (runner, error) {
	switch config.Mode {
	case ModeTerminal:
		return NewTerminal(logger), nil
	case ModeWeb:
		return NewWeb(config.WebAddr, logger), nil
	default:
		bot, err := LoadBot(config, logger)
		if err != nil {
			return nil, err
		}
		return bot, nil
	}
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(config)
	if err != nil {
		slog.Error("failed to open log", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	app, err := newRunner(config, logger)
	if err != nil {
		logger.Error("failed to start", "mode", config.Mode, "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting calcpad", "mode", config.Mode)
		if err := app.Run(); !errors.Is(err, ErrClosed) {
			logger.Error("calcpad stopped unexpectedly", "error", err)
		}
		quit <- os.Interrupt
	}()

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	logger.Info("stopping calcpad")
	if err := app.Shutdown(ctx); err != nil && !errors.Is(err, ErrClosed) {
		logger.Error("failed to gracefully shut down", "error", err)
	}
	logger.Info("calcpad stopped")
}
