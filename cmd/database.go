package cmd

import (
	"fmt"

	"github.com/ebudnikov/dateguard/internal/config"
	"github.com/ebudnikov/dateguard/internal/database"
	"github.com/ebudnikov/dateguard/internal/database/mariadb"
	"github.com/ebudnikov/dateguard/internal/database/postgres"
	"github.com/ebudnikov/dateguard/internal/database/sqlite"
)

// openStore opens the database backend selected by configuration.
func openStore(cfg *config.DatabaseConfig) (database.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.URL)
	case "postgres":
		return postgres.Open(cfg.URL, cfg.MaxOpenConns, cfg.MaxIdleConns)
	case "mariadb", "mysql":
		return mariadb.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
