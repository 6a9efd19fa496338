package postgres

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to the embedded migration set.  It is safe to
// run on every startup; an already-current schema is not an error.
func Migrate(cfg config.DatabaseConfig, log logging.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "read embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "pgx5://"+migrateDSN(cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeStorage, "apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Warn("could not read migration version", logging.Err(err))
		return nil
	}
	log.Info("schema migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// migrateDSN is the scheme-less form of the connection URL expected after the
// migrate driver prefix.
func migrateDSN(cfg config.DatabaseConfig) string {
	dsn := buildDSN(cfg)
	return dsn[len("postgres://"):]
}
