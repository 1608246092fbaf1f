package config

import (
	"github.com/tenantline/tenantline-console/internal/logger"
)

// Platform holds settings for the tenantline platform backend.
type Platform struct {
	URL            string // base url of the platform REST API
	TimeoutSeconds int    // per request timeout, defaults to 15
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Platform  Platform
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool   // enable static file browsing (for development purposes only)
	CacheEnabled   bool   // true = enable cache, false = disable cache
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
