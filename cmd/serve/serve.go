// Package serve implements the serve sub-command.
package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver for golang_migrate
	_ "github.com/golang-migrate/migrate/v4/source/file"       // support file scheme for golang_migrate
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	v1 "github.com/vestlock/vestlock/api/v1"
	cmdCommon "github.com/vestlock/vestlock/cmd/common"
	"github.com/vestlock/vestlock/config"
	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/metrics"
	"github.com/vestlock/vestlock/storage"
	"github.com/vestlock/vestlock/vault"
)

const moduleName = "serve"

var (
	// Path to the configuration file.
	configFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the vault API",
		Run:   runServer,
	}
)

// Register registers the serve sub-command.
func Register(parentCmd *cobra.Command) {
	serveCmd.Flags().StringVar(&configFile, "config", "./conf/server.yml", "path to the config.yml file")
	parentCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}

	if err = cmdCommon.Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := cmdCommon.RootLogger()

	if cfg.Server == nil {
		logger.Error("server config not provided")
		os.Exit(1)
	}

	service, err := Init(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer service.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.Run(ctx); err != nil {
		logger.Error("service terminated", "error", err)
		os.Exit(1)
	}
}

// Init initializes the API service.
func Init(cfg *config.Config) (*Service, error) {
	logger := cmdCommon.RootLogger()

	var backendKind config.StorageBackend
	if err := backendKind.Set(cfg.Server.Storage.Backend); err != nil {
		return nil, err
	}
	if backendKind == config.BackendPostgres {
		if err := runMigrations(cfg.Server.Storage, logger); err != nil {
			return nil, err
		}
	}

	service, err := NewService(cfg)
	if err != nil {
		logger.Error("service failed to start",
			"error", err,
		)
		return nil, err
	}
	return service, nil
}

func runMigrations(cfg *config.StorageConfig, logger *log.Logger) error {
	m, err := migrate.New(cfg.Migrations, cfg.Endpoint)
	if err != nil {
		logger.Error("migrator failed to start",
			"error", err,
		)
		return err
	}

	switch err = m.Up(); {
	case err == migrate.ErrNoChange:
		logger.Info("no migrations needed to be applied")
	case err != nil:
		logger.Error("migrations failed",
			"error", err,
		)
		return err
	default:
		logger.Info("migrations completed")
	}
	return nil
}

// Service is the vault API service.
type Service struct {
	endpoint string
	handler  *v1.Handler
	target   storage.TargetStorage
	metrics  *metrics.PullService
	logger   *log.Logger
}

// NewService creates a new API service.
func NewService(cfg *config.Config) (*Service, error) {
	logger := cmdCommon.RootLogger().WithModule(moduleName)

	backend, target, err := cmdCommon.NewVaultBackend(cfg.Server.Storage, logger)
	if err != nil {
		return nil, err
	}
	vaultService := vault.NewService(backend, vault.SystemClock{}, logger)

	var pullService *metrics.PullService
	if cfg.Metrics != nil {
		pullService, err = metrics.NewPullService(cfg.Metrics.PullEndpoint, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		endpoint: cfg.Server.Endpoint,
		handler:  v1.NewHandler(vaultService, logger),
		target:   target,
		metrics:  pullService,
		logger:   logger,
	}, nil
}

// Run starts the API service and blocks until the context is canceled or a
// server fails.
func (s *Service) Run(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	s.handler.RegisterMiddlewares(r)
	s.handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:           s.endpoint,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("starting api service", "endpoint", s.endpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if s.metrics != nil {
		group.Go(func() error {
			return s.metrics.Run(groupCtx)
		})
	}

	return group.Wait()
}

// Shutdown gracefully shuts down the service.
func (s *Service) Shutdown() {
	if s.target != nil {
		s.target.Shutdown()
	}
}
