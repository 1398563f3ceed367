// Package main is the entry point for the shopping list server.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
	"github.com/vyrodovalexey/shoplist-api/internal/config"
	"github.com/vyrodovalexey/shoplist-api/internal/store"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}

// createAuthenticator builds the authenticator for cfg.AuthMode.
func createAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	switch cfg.AuthMode {
	case "none", "":
		logger.Info("authentication disabled")
		return auth.Anonymous{}, nil
	case "basic":
		logger.Info("authentication mode: basic auth")
		return auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
	case "apikey":
		logger.Info("authentication mode: API key")
		return auth.NewAPIKeyAuthenticator(cfg.APIKeys)
	case "multi":
		logger.Info("authentication mode: multi")
		return createMultiAuthenticator(cfg)
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.AuthMode)
	}
}

// createMultiAuthenticator chains API key before basic auth, skipping
// methods that have no configuration.
func createMultiAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	var chain []auth.Authenticator

	if cfg.APIKeys != "" {
		a, err := auth.NewAPIKeyAuthenticator(cfg.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("multi auth: %w", err)
		}
		chain = append(chain, a)
	}

	if cfg.BasicAuthUsers != "" {
		a, err := auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
		if err != nil {
			return nil, fmt.Errorf("multi auth: %w", err)
		}
		chain = append(chain, a)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("multi auth: no authenticators configured")
	}

	return auth.NewMultiAuthenticator(chain...), nil
}

// openStore returns the configured store and a function releasing it.
func openStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return store.NewMemoryStore(), func() error { return nil }, nil
	case config.StoreSQLite:
		s, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store: %s", cfg.StoreDriver)
	}
}

// loadTable returns the rules from path, or the built-in rules when
// path is empty.
func loadTable(path string) (*validation.Table, error) {
	if path == "" {
		return validation.DefaultTable(), nil
	}
	return validation.LoadTable(path)
}
