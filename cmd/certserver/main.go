package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/adamscao/eventcert/internal/api"
	"github.com/adamscao/eventcert/internal/cache"
	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/config"
	"github.com/adamscao/eventcert/internal/db"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/jobs"
	"github.com/adamscao/eventcert/internal/logging"
	"github.com/adamscao/eventcert/internal/metrics"
	"github.com/adamscao/eventcert/internal/policy"
	"github.com/adamscao/eventcert/internal/verify"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/eventcert/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Event Certificate Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closer := logging.New(cfg.Logging)

	err = run(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
	closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("version", Version).Str("commit", Commit).Msg("starting event certificate server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	logger.Info().Str("path", cfg.Database.Path).Msg("connecting to database")
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize repositories
	certRepo := repository.NewCertRepository(database.DB)
	verificationRepo := repository.NewVerificationRepository(database.DB)

	m := metrics.New()

	deps := api.Dependencies{
		Issuer: cert.NewIssuer(
			cert.NewIDGenerator(cfg.Issuance.IDPrefix),
			cert.NewKeyGenerator(cfg.Issuance.KeyBits),
			cfg.Issuance.OrganizerName,
		),
		Policy:    policy.NewValidator(cfg.Issuance),
		QR:        cert.NewQRCodec(cfg.QR.Size, cfg.QR.Margin),
		Resolver:  verify.NewResolver(certRepo),
		Store:     certRepo,
		Reader:    certRepo,
		Lister:    certRepo,
		Logs:      verificationRepo,
		LogReader: verificationRepo,
		Metrics:   m,
		Logger:    logger,
	}

	if cfg.Cache.Enabled {
		records, err := cache.New(ctx, certRepo, cache.Config{
			LifeWindow:   cfg.GetCacheLifeWindow(),
			MaxEntrySize: cfg.Cache.MaxEntrySize,
		}, logger)
		if err != nil {
			return err
		}
		defer records.Close()

		deps.Resolver = verify.NewResolver(records)
		deps.Reader = records
		deps.Cache = records
	}

	// Retention
	pruner := jobs.NewPruner(verificationRepo, cfg.GetVerificationLogMaxAge(), m, logger)
	scheduler, err := jobs.NewScheduler(pruner, cfg.GetPruneInterval())
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(cfg, deps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("starting HTTP server")
		return server.Run(gctx)
	})

	if cfg.Server.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info().Str("addr", cfg.Server.MetricsAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info().Msg("server stopped")
	return err
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
