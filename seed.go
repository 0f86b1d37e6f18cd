package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"twitterclone/internal/auth"
	"twitterclone/internal/store"
)

const (
	defaultSeedTimeout = 30 * time.Second
	seedUsername       = "eugen"
	seedPassword       = "1234"
	seedTweet          = "Hello World"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer st.Close()
			cmd.Println("Database is up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user and tweet",
		Long: `Registers the demo user and posts a first tweet as that user.
Running it again does nothing once the demo user exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := cfg.NewLogger()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			svc, err := newAuthService(cfg, st, log)
			if err != nil {
				return err
			}
			created, err := seed(ctx, svc, st, log)
			if err != nil {
				return err
			}
			if created {
				cmd.Println("Seeded demo user and tweet")
			} else {
				cmd.Println("Demo user already exists, skipping seed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations")
	return cmd
}

// seed registers the demo user and their first tweet. It reports false when
// the user already exists.
func seed(ctx context.Context, svc *auth.Service, st *store.Store, log logrus.FieldLogger) (bool, error) {
	exists, err := st.UserExists(ctx, seedUsername)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	user, err := svc.Register(ctx, seedUsername, seedPassword)
	if errors.Is(err, auth.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "registering demo user failed")
	}
	tweet, err := st.CreateTweet(ctx, seedTweet, &user.ID)
	if err != nil {
		return false, err
	}
	log.WithFields(logrus.Fields{"user_id": user.ID, "tweet_id": tweet.ID}).Info("seeded demo data")
	return true, nil
}
