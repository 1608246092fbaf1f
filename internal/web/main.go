package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/config"
	accesslog "github.com/tenantline/tenantline-console/internal/logger/adapter/fiber"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/web/handler/dashboard"
	"github.com/tenantline/tenantline-console/internal/web/handler/login"
	"github.com/tenantline/tenantline-console/internal/web/handler/logout"
	"github.com/tenantline/tenantline-console/internal/web/handler/password"
	"github.com/tenantline/tenantline-console/internal/web/handler/register"
	"github.com/tenantline/tenantline-console/internal/web/handler/userroles"
	"github.com/tenantline/tenantline-console/internal/web/middleware/admission"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	store        *session.Store
	client       *platform.Client
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the console.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, store *session.Store, client *platform.Client) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if store == nil || client == nil {
		panic("store and client cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	// access log middleware
	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: "/checkalive",
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	// init web service
	service := &Service{
		cfg:    cfg,
		App:    app,
		store:  store,
		client: client,
	}
	service.alive.Store(true)

	// liveness and metrics, outside route admission
	app.Get("/checkalive", service.checkAlive)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// route admission middleware over the process session
	app.Use(admission.New(store))

	// init handlers (they register their own routes with permission checks)
	initHandlers(app, cfg, store, client)

	// redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	return service
}

func initHandlers(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) {
	inits := []func() error{
		func() error { return login.Handler.Init(app, cfg, store, client) },
		func() error { return register.Handler.Init(app, cfg, store, client) },
		func() error { return password.Handler.Init(app, cfg, store, client) },
		func() error { return logout.Handler.Init(app, cfg, store, client) },
		func() error { return dashboard.Handler.Init(app, cfg, store, client) },
		func() error { return userroles.Handler.Init(app, cfg, store, client) },
	}

	for _, init := range inits {
		if err := init(); err != nil {
			log.Fatal().Err(err).Msg("failed to init web handler")
		}
	}
}

// checkAlive answers load balancer liveness probes. It flips to 503
// during graceful shutdown.
func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("ok")
}
