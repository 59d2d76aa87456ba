package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := loadFrom(viper.New())
		require.NoError(t, err)

		assert.Equal(t, "repairshop-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "repairshop", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "cash", cfg.Ledger.DefaultLocationMethod)
		assert.Equal(t, 30, cfg.Reconciliation.DateWindowDays)
		assert.Equal(t, 10*time.Minute, cfg.Reconciliation.LockTTL)
		assert.Equal(t, "notifications", cfg.Notification.Queue)
		assert.Equal(t, "repairshop-backend", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with REPAIR prefix", func(t *testing.T) {
		t.Setenv("REPAIR_APP_NAME", "test-app")
		t.Setenv("REPAIR_DATABASE_HOST", "testdb.local")
		t.Setenv("REPAIR_DATABASE_PORT", "5433")
		t.Setenv("REPAIR_DATABASE_PASSWORD", "testpass")
		t.Setenv("REPAIR_LEDGER_DEFAULT_LOCATION_METHOD", "bank")
		t.Setenv("REPAIR_RECONCILIATION_DATE_WINDOW_DAYS", "14")
		t.Setenv("REPAIR_RECONCILIATION_LOCK_ENABLED", "true")
		t.Setenv("REPAIR_NOTIFICATION_QUEUE", "whatsapp")

		cfg, err := loadFrom(viper.New())
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "bank", cfg.Ledger.DefaultLocationMethod)
		assert.Equal(t, 14, cfg.Reconciliation.DateWindowDays)
		assert.True(t, cfg.Reconciliation.LockEnabled)
		assert.Equal(t, "whatsapp", cfg.Notification.Queue)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("REPAIR_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("REPAIR_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := loadFrom(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects out of range schedule time", func(t *testing.T) {
		t.Setenv("REPAIR_RECONCILIATION_SCHEDULE_ENABLED", "true")
		t.Setenv("REPAIR_RECONCILIATION_SCHEDULE_HOUR", "24")

		_, err := loadFrom(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schedule_hour")
	})

	t.Run("rejects negative date window", func(t *testing.T) {
		t.Setenv("REPAIR_RECONCILIATION_DATE_WINDOW_DAYS", "-3")

		_, err := loadFrom(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "date_window_days")
	})

	t.Run("production requires a database password", func(t *testing.T) {
		t.Setenv("REPAIR_APP_ENV", "production")
		t.Setenv("REPAIR_DATABASE_SSLMODE", "require")

		_, err := loadFrom(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("splits list values from env", func(t *testing.T) {
		t.Setenv("REPAIR_HTTP_CORS_ALLOW_ORIGINS", "https://shop.example,https://admin.example")

		cfg, err := loadFrom(viper.New())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.HTTP.CORSAllowOrigins)
	})

	t.Run("rejects sampling ratio outside 0..1", func(t *testing.T) {
		t.Setenv("REPAIR_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := loadFrom(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "shop", Password: "p@ss word", DBName: "repairshop", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5432/repairshop?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
