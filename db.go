package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"twitterclone/internal/auth"
	"twitterclone/internal/config"
	"twitterclone/internal/password"
	"twitterclone/internal/session"
	"twitterclone/internal/store"
)

// openStore opens the configured database and applies pending migrations.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, err
	}
	applied, err := st.Migrate(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	if len(applied) > 0 {
		log.WithField("versions", applied).Info("migrations applied")
	}
	return st, nil
}

func newAuthService(cfg config.Config, st *store.Store, log logrus.FieldLogger) (*auth.Service, error) {
	codec, err := session.New(session.Options{
		Name:     cfg.Session.Name,
		TTL:      cfg.Session.TTL,
		Secure:   cfg.Session.Secure,
		KeyPairs: cfg.SessionKeys(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "configuring sessions failed")
	}
	return auth.New(st, password.New(cfg.Password.Cost), codec, log), nil
}

func newApp(cfg config.Config, st *store.Store, log *logrus.Logger) (*app, error) {
	authSvc, err := newAuthService(cfg, st, log)
	if err != nil {
		return nil, err
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &app{
		auth:    authSvc,
		store:   st,
		flashes: newFlashStore(cfg.Session.Secure, cfg.SessionKeys()...),
		pages:   p,
		log:     log,
	}, nil
}
