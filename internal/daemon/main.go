// Package daemon wires the console together: local state database,
// session store, platform gateway, session bootstrap and the web
// service.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/db"
	"github.com/tenantline/tenantline-console/internal/db/controller/state"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/web"
)

// State record names in the local database. The session blob and the
// refresh cookie jar are stored apart so logging out clears the session
// without discarding other cookies.
const (
	sessionRecord = "session"
	cookieRecord  = "cookies"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService web.Service
	cfg        *config.Config
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service has shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state database")
		return nil
	}

	store := session.NewStore(state.NewBlob(gdb, sessionRecord))

	jar, err := platform.NewPersistentJar(cfg.Platform.URL, state.NewBlob(gdb, cookieRecord))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore cookie jar")
		return nil
	}

	client, err := platform.New(
		platform.Config{
			BaseURL: cfg.Platform.URL,
			Timeout: time.Duration(cfg.Platform.TimeoutSeconds) * time.Second,
		},
		store,
		platform.WithCookieJar(jar),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create platform client")
		return nil
	}

	// The web service serves the loading page until the bootstrap
	// reaches a terminal phase.
	go func() {
		phase := session.NewBootstrap(store, client).Run(context.Background())
		log.Info().Str("phase", string(phase)).Msg("session bootstrap finished")
	}()

	return &Daemon{
		cfg:        cfg,
		webService: *web.New(cfg, store, client),
	}
}
