package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"twitterclone/internal/config"
)

// Global flags available to all subcommands.
var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "twitterclone",
		Short: "A minimal Twitter clone",
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.path", "/tmp/twitterclone.db", "SQLite database file")
	cmd.PersistentFlags().String("log.level", "info", "log level")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newDumpCmd())
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("http.addr", ":5000", "listen address")
	cmd.Flags().Bool("session.allow_default_secret", false, "allow serving with the built-in session secret")
	return cmd
}

var errDefaultSecret = errors.New("session.secrets uses the built-in development key; " +
	"configure a secret or set session.allow_default_secret")

// checkSessionSecrets refuses the built-in session key unless the operator
// has opted in, in which case it only warns.
func checkSessionSecrets(cfg config.Config, log logrus.FieldLogger) error {
	if !cfg.UsesDefaultSecret() {
		return nil
	}
	if !cfg.Session.AllowDefaultSecret {
		return errDefaultSecret
	}
	log.Warn("serving with the built-in development session key, sessions can be forged")
	return nil
}

func serve(parent context.Context, cfg config.Config) error {
	log := cfg.NewLogger()
	if err := checkSessionSecrets(cfg, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := newApp(cfg, st, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.setupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown failed")
		}
		log.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	}
}
