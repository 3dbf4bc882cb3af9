// Package app wires the components into one graph.
package app

import (
	"github.com/jrsteele09/atreader/api"
	"github.com/jrsteele09/atreader/auth"
	"github.com/jrsteele09/atreader/bootstrap"
	"github.com/jrsteele09/atreader/internal/config"
	"github.com/jrsteele09/atreader/progress"
	"github.com/jrsteele09/atreader/reader"
	"github.com/jrsteele09/atreader/session"
	"github.com/jrsteele09/atreader/sso"
	"github.com/jrsteele09/atreader/sso/chromesurface"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Container holds one instance of every component. Only Sessions touches the
// store.
type Container struct {
	Config      config.Config
	Sessions    *session.Manager
	Gateway     *api.Client
	Exchanger   *sso.Exchanger
	Auth        *auth.Service
	Repository  *reader.Repository
	Progress    *progress.Syncer
	Coordinator *bootstrap.Coordinator

	logger zerolog.Logger
}

// New builds the graph on store. Repositories and the coordinator call
// through the auth service.
func New(cfg config.Config, store session.Store, logger zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("[app.New] config is required")
	}

	c := &Container{Config: cfg, logger: logger}

	var err error
	c.Sessions, err = session.NewManager(store, session.WithLogger(component(logger, "session")))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Gateway, err = api.New(cfg.GetAPIBaseURL(), c.Sessions,
		api.WithTimeout(cfg.GetRequestTimeout()),
		api.WithUserAgent(cfg.GetUserAgent()),
		api.WithLogger(component(logger, "api")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Exchanger, err = sso.New(cfg,
		sso.WithTimeout(cfg.GetRequestTimeout()),
		sso.WithLogger(component(logger, "sso")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Auth, err = auth.NewService(c.Sessions, c.Gateway, c.Exchanger, auth.WithLogger(component(logger, "auth")))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Repository, err = reader.NewRepository(c.Auth)
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Progress, err = progress.NewSyncer(progress.NewMemoryRepo(), c.Repository, progress.WithLogger(component(logger, "progress")))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}

	c.Coordinator, err = bootstrap.NewCoordinator(c.Auth, c.Repository, bootstrap.WithLogger(component(logger, "bootstrap")))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New]")
	}
	return c, nil
}

// NewSurface returns a fresh browser surface for one SSO attempt.
func (c *Container) NewSurface() sso.Surface {
	return chromesurface.New(
		chromesurface.WithBrowserPath(c.Config.GetBrowserPath()),
		chromesurface.WithLogger(component(c.logger, "chromesurface")),
	)
}

func component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
