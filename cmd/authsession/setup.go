package main

import (
	"context"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/expiry"
	"github.com/jrsteele09/go-auth-session/identity"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/sessions"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// managerAction builds a Manager for the duration of one command.
func managerAction(cfg config.Config, action func(c *cli.Context, m *auth.Manager) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, closeStore, err := newStore(cfg)
		if err != nil {
			return errors.Wrap(err, "error opening session store")
		}
		defer closeStore()

		m, err := newManager(c.Context, cfg, store)
		if err != nil {
			return errors.Wrap(err, "error creating session manager")
		}
		defer m.Close()

		return action(c, m)
	}
}

func newManager(ctx context.Context, cfg config.Config, store sessions.Store) (*auth.Manager, error) {
	exchanger := identity.NewClient(
		cfg.GetIdentityBaseURL(),
		cfg.GetAPIKey(),
		identity.WithTimeout(cfg.GetRequestTimeout()),
	)

	options := []auth.ManagerOption{auth.WithLogger(log.Logger)}
	if cfg.GetVerifyIDTokens() {
		options = append(options, auth.WithTokenVerifier(token.NewFirebaseVerifier(ctx, cfg.GetProjectID())))
	}

	return auth.NewManager(auth.Dependencies{
		Exchanger: exchanger,
		Store:     store,
		Scheduler: expiry.NewTimerScheduler(),
	}, options...)
}

func newStore(cfg config.Config) (sessions.Store, func(), error) {
	switch cfg.GetStorageBackend() {
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Error closing redis client")
			}
		}
		return sessions.NewRedisStore(client, cfg.GetSessionKey()), closeClient, nil
	case config.StorageFile:
		return sessions.NewFileStore(cfg.GetDataFolder(), cfg.GetSessionKey()), func() {}, nil
	default:
		return nil, nil, errors.Errorf("unsupported session store %q", cfg.GetStorageBackend())
	}
}
