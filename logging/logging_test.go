package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gamelib/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_LevelsAndFormats(t *testing.T) {
	logger, err := New(&config.Config{LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = New(&config.Config{LogLevel: "loud"})
	assert.Error(t, err, "unknown level must be rejected")

	_, err = New(&config.Config{LogFormat: "xml"})
	assert.Error(t, err, "unknown format must be rejected")
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamelib.log")
	logger, err := New(&config.Config{LogLevel: "info", LogFile: path, LogMaxSizeMB: 1, LogMaxBackups: 1, LogMaxAgeDays: 1})
	require.NoError(t, err)

	logger.Info("hello from the test")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}

func TestSetup_ReplacesGlobals(t *testing.T) {
	before := zap.L()
	restore, err := Setup(&config.Config{LogLevel: "debug"})
	require.NoError(t, err)
	assert.NotSame(t, before, zap.L())
	restore()
	assert.Same(t, before, zap.L())
}

func observe(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestGinLogger(t *testing.T) {
	logs := observe(t)

	router := gin.New()
	router.Use(GinLogger("/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/games", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/boom", "/games"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "/games", entries[2].ContextMap()["path"])
}

func TestGinRecovery(t *testing.T) {
	logs := observe(t)

	router := gin.New()
	router.Use(GinRecovery())
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Panic while handling request").Len())
}
