// Package migration applies and authors the SQL files under migrations/.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator moves the schema between versions. Reaching the requested version when already
// there is not an error.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New runs migrations over an already open postgres handle
func New(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL(dir), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	return &Migrator{m: m, log: log}, nil
}

// NewFromURL opens its own connection from a postgres:// URL
func NewFromURL(databaseURL, dir string, log *zap.Logger) (*Migrator, error) {
	m, err := migrate.New(sourceURL(dir), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	return &Migrator{m: m, log: log}, nil
}

func sourceURL(dir string) string { return "file://" + dir }

func (m *Migrator) Up() error   { return m.apply("up", m.m.Up) }
func (m *Migrator) Down() error { return m.apply("down", m.m.Down) }

// Steps moves n versions; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("step %+d", n), func() error { return m.m.Steps(n) })
}

func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

func (m *Migrator) apply(op string, fn func() error) error {
	log := m.log.With(zap.String("op", op))
	switch err := fn(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("schema unchanged")
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Version is 0 on an empty database
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force marks version as applied and clean without running it. Used after a failed
// migration has been repaired by hand.
func (m *Migrator) Force(version int) error {
	m.log.Warn("forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop deletes every table, ledger included
func (m *Migrator) Drop() error {
	m.log.Warn("dropping every database object")
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
