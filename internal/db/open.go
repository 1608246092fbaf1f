// Package db opens the console's local state database.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/db/dsn"
	"github.com/tenantline/tenantline-console/internal/db/models"
)

// ErrUnknownEngine is returned for a db.gormengine value the console
// does not support.
var ErrUnknownEngine = errors.New("unknown database engine")

// Open connects to the configured engine and migrates the schema.
// SQLite is the default so a fresh console runs without any external
// database.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "", "sqlite":
		path := cfg.DB.Path
		if path == "" {
			path = "tenantline-console.db"
		}

		dialector = sqlite.Open(path)
	case "mysql":
		dialector = mysql.Open(dsn.Create(cfg))
	case "postgres":
		dialector = postgres.Open(dsn.CreatePostgres(cfg))
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.GormEngine)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open state database")
	}

	if err = gdb.AutoMigrate(&models.StateRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate state database")
	}

	return gdb, nil
}
