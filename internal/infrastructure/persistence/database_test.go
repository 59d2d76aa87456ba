package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func pingableDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return &Database{DB: db}, mock
}

func TestDatabase_Ping(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
	}{
		{name: "reachable"},
		{name: "refused", pingErr: errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := pingableDatabase(t)
			mock.ExpectPing().WillReturnError(tt.pingErr)

			err := d.Ping(context.Background())
			if tt.pingErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ping database")
				assert.ErrorIs(t, err, tt.pingErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDatabase_StatsAfterSizing(t *testing.T) {
	d, _ := pingableDatabase(t)
	pool, err := d.pool()
	require.NoError(t, err)
	sizePool(pool, &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 2, ConnMaxLifetime: 30, ConnMaxIdleTime: 5})

	stats, err := d.Stats()
	require.NoError(t, err)
	assert.Equal(t, 7, stats.MaxOpen)
	assert.Equal(t, stats.Open, stats.InUse+stats.Idle)
}

func TestDatabase_Close(t *testing.T) {
	d, mock := pingableDatabase(t)
	mock.ExpectClose()

	require.NoError(t, d.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
