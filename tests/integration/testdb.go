// Package integration runs the ledger, workflow and reconciliation services against a real
// PostgreSQL started with testcontainers and migrated with the production migrations.
// The tests are skipped with -short.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/repairshop/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// postgresServer is started by the first test that needs it and shared by the package
var postgresServer struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// NewSharedTestDB connects to the shared, migrated database with every table emptied.
func NewSharedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs docker")
	}

	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container == nil {
		startPostgres(t)
	}

	logLevel := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(postgresServer.dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	truncateAll(t, db)
	return db
}

func startPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("repairshop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("repair123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.NewFromURL(dsn, migrationsDir(t), zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	postgresServer.container = container
	postgresServer.dsn = dsn
}

func truncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	var tables []string
	require.NoError(t, db.Raw(`SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`).Scan(&tables).Error)
	if len(tables) > 0 {
		require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE").Error)
	}
}

// migrationsDir finds the module's migrations directory above this file
func migrationsDir(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	for dir := filepath.Dir(file); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	t.Fatal("migrations directory not found")
	return ""
}

// CleanupSharedContainer stops the shared database. TestMain calls it after the run.
func CleanupSharedContainer() {
	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
	postgresServer.container = nil
}
