package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ginRequestIDKey, "req-42")
		if actor := c.GetHeader("X-User-ID"); actor != "" {
			c.Set(ginActorIDKey, actor)
		}
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	return router, logs
}

func requestEntry(t *testing.T, logs *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			router, logs := newLoggedRouter(t)
			router.PATCH("/reports/:id/status", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/reports/1/status?x=1", nil))

			entry := requestEntry(t, logs)
			assert.Equal(t, tt.level, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, http.MethodPatch, fields["method"])
			assert.Equal(t, "/reports/1/status", fields["path"])
			assert.Equal(t, "x=1", fields["query"])
			assert.EqualValues(t, tt.status, fields["status"])
		})
	}
}

func TestGinMiddleware_RequestLoggerReachesHandlers(t *testing.T) {
	router, logs := newLoggedRouter(t)
	router.POST("/locations/:id/deposit", func(c *gin.Context) {
		GetGinLogger(c).Info("from gin context")
		Ctx(c.Request.Context(), nil).Info("from request context")
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/locations/1/deposit", nil)
	req.Header.Set("X-User-ID", "9b2f0c1e-0000-4000-8000-000000000001")
	router.ServeHTTP(httptest.NewRecorder(), req)

	for _, msg := range []string{"from gin context", "from request context", "HTTP Request"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-42", fields["request_id"], msg)
		assert.Equal(t, "9b2f0c1e-0000-4000-8000-000000000001", fields["actor_id"], msg)
	}
}

func TestGinMiddleware_RecordsErrors(t *testing.T) {
	router, logs := newLoggedRouter(t)
	router.GET("/ledger/audit", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ledger/audit", nil))

	entry := requestEntry(t, logs)
	assert.Equal(t, []any{assert.AnError.Error()}, entry.ContextMap()["errors"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestGetGinLogger_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotPanics(t, func() { GetGinLogger(c).Info("nop") })
}
