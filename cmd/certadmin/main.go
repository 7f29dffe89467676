package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adamscao/eventcert/internal/config"
	"github.com/adamscao/eventcert/internal/db"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/logging"
)

// app holds state shared by subcommands
type app struct {
	configPath string
	cfg        *config.Config
	database   *db.DB
	logger     zerolog.Logger
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "certadmin",
		Short:         "Event certificate administration tool",
		Long:          "Administrative tool for issuing, inspecting and verifying event certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "/etc/eventcert/config.yaml", "Config file path")

	addIssueCommand(root, a)
	addShowCommand(root, a)
	addListCommand(root, a)
	addQRCommand(root, a)
	addVerifyCommand(root, a)
	addPruneCommand(root, a)
	addTOTPCommand(root)
	addTokenCommand(root)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open loads configuration and connects to the database
func (a *app) open() error {
	var err error
	a.cfg, err = config.LoadWithEnv(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.logger, a.logCloser = logging.New(a.cfg.Logging)

	a.database, err = db.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(a.database); err != nil {
		a.database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

func (a *app) certs() *repository.CertRepository {
	return repository.NewCertRepository(a.database.DB)
}
