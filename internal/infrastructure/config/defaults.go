package config

import "time"

// defaults lists every key. Viper only maps environment variables onto keys it knows,
// so keys without a useful default are registered with their zero value.
var defaults = map[string]any{
	"app.name":    "repairshop-backend",
	"app.env":     "development",
	"app.port":    "8080",
	"app.version": "dev",

	"database.host":                 "localhost",
	"database.port":                 5432,
	"database.user":                 "postgres",
	"database.password":             "",
	"database.dbname":               "repairshop",
	"database.sslmode":              "disable",
	"database.max_open_conns":       25,
	"database.max_idle_conns":       5,
	"database.conn_max_lifetime":    60,
	"database.conn_max_idle_time":   30,
	"database.slow_query_threshold": 200 * time.Millisecond,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"event.processor_enabled": false,
	"event.batch_size":        100,
	"event.poll_interval":     5 * time.Second,
	"event.max_retries":       5,
	"event.cleanup_enabled":   false,
	"event.cleanup_retention": 7 * 24 * time.Hour,

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      15 * time.Second,
	"http.idle_timeout":       time.Minute,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(10 << 20),
	"http.request_timeout":    30 * time.Second,
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PATCH", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-ID"},
	"http.trusted_proxies":    []string{},

	"ledger.default_location_method": "cash",

	"reconciliation.date_window_days": 30,
	"reconciliation.lock_enabled":     false,
	"reconciliation.lock_ttl":         10 * time.Minute,
	"reconciliation.schedule_enabled": false,
	"reconciliation.schedule_hour":    3,
	"reconciliation.schedule_minute":  0,

	"notification.enabled":   false,
	"notification.queue":     "notifications",
	"notification.max_retry": 5,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "",
	"telemetry.insecure":           false,
	"telemetry.metrics_interval":   time.Minute,
	"telemetry.logs_enabled":       false,
	"telemetry.db_trace_enabled":   false,
	"telemetry.db_log_full_sql":    false,
}

func setDefaults(v interface{ SetDefault(string, any) }) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
