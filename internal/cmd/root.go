// Package cmd implements the portalctl command tree.
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tourstack/go-portal-client/internal/config"
	"github.com/tourstack/go-portal-client/portalapi"
	"github.com/tourstack/go-portal-client/session"
	"github.com/tourstack/go-portal-client/tokenstore/filestore"
	"github.com/tourstack/go-portal-client/tokenstore/sqlitestore"
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Tourism portal account and session tool",
	Long: `portalctl manages your tourism portal session from the command line.

Log in once and the session survives across invocations; tokens are kept in
your data directory (PORTAL_DATA_DIR, default ~/.portalctl).

Examples:
  portalctl login --username alice
  portalctl status
  portalctl register --role vendor --username bob --email bob@example.com`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		displayAppName(config.New().GetAppName())
		return cmd.Help()
	},
}

// Execute runs the command tree and reports failures on stderr.
func Execute() {
	configureLogging()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func configureLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level := zerolog.WarnLevel
	if config.GetEnv("PORTAL_LOG", "") == "debug" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func displayAppName(appName string) {
	myFigure := figure.NewFigure(appName, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

// newManager wires a session Manager from environment configuration. The
// returned closer releases the token store when it holds resources.
func newManager(cfg config.Config) (*session.Manager, func() error, error) {
	store, closer, err := newTokenStore(cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[newManager] token store")
	}

	api := portalapi.NewClient(
		cfg.GetAPIBaseURL(),
		portalapi.WithLogger(log.Logger),
		portalapi.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.GetHTTPTimeoutSeconds()) * time.Second,
		}),
	)

	manager, err := session.New(
		session.Deps{API: api, Store: store},
		session.WithLogger(log.Logger),
	)
	if err != nil {
		closer()
		return nil, nil, errors.Wrap(err, "[newManager] session.New")
	}

	return manager, closer, nil
}

func newTokenStore(cfg config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetTokenStore() {
	case config.TokenStoreSQLite:
		store, err := sqlitestore.New(filepath.Join(cfg.GetDataDir(), "portal.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := filestore.New(cfg.GetDataDir())
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
}
