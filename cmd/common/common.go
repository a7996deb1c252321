// Package common implements common command options and environment setup.
package common

import (
	"fmt"
	"io"
	"os"

	"github.com/vestlock/vestlock/config"
	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/storage"
	"github.com/vestlock/vestlock/storage/postgres"
	"github.com/vestlock/vestlock/vault"
	vaultMem "github.com/vestlock/vestlock/vault/mem"
	vaultPostgres "github.com/vestlock/vestlock/vault/postgres"
)

var rootLogger = log.NewDefaultLogger("vestlock")

// Init initializes the common environment.
func Init(cfg *config.Config) error {
	var w io.Writer = os.Stdout
	format := log.FmtJSON
	level := log.LevelInfo

	if cfg.Log != nil {
		var err error
		if w, err = getLoggingStream(cfg.Log); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		if err := format.Set(cfg.Log.Format); err != nil {
			return err
		}
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger, err := log.NewLogger("vestlock", w, format, level)
	if err != nil {
		return err
	}
	rootLogger = logger

	return nil
}

// RootLogger returns the logger configured by Init.
func RootLogger() *log.Logger {
	return rootLogger
}

func getLoggingStream(cfg *config.LogConfig) (io.Writer, error) {
	if cfg == nil || cfg.File == "" {
		return os.Stdout, nil
	}
	w, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewVaultBackend creates the vault backend selected by the storage config.
// The returned target storage is nil for the memory backend.
func NewVaultBackend(cfg *config.StorageConfig, logger *log.Logger) (vault.Backend, storage.TargetStorage, error) {
	var backend config.StorageBackend
	if err := backend.Set(cfg.Backend); err != nil {
		return nil, nil, err
	}

	switch backend {
	case config.BackendPostgres:
		client, err := postgres.NewClient(cfg.Endpoint, logger)
		if err != nil {
			return nil, nil, err
		}
		return vaultPostgres.NewBackend(client, logger), client, nil
	case config.BackendMemory:
		return vaultMem.NewBackend(), nil, nil
	default:
		panic(fmt.Sprintf("unsupported storage backend: %v", backend))
	}
}
