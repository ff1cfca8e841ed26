package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		handler   echo.HandlerFunc
		wantCode  int
		wantLevel zapcore.Level
	}{
		{
			name:      "ok",
			handler:   func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			wantCode:  http.StatusOK,
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "client error",
			handler:   func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") },
			wantCode:  http.StatusNotFound,
			wantLevel: zapcore.WarnLevel,
		},
		{
			name: "server error",
			handler: func(c echo.Context) error {
				c.Set(CtxUserIDKey, int64(42))
				return c.JSON(http.StatusInternalServerError, errorJSON("db error"))
			},
			wantCode:  http.StatusInternalServerError,
			wantLevel: zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			e := echo.New()
			e.Use(RequestLogger(zap.New(core)))
			e.GET("/orders/:id", tt.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/7", nil))
			assert.Equal(t, tt.wantCode, rec.Code)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, "/orders/7", fields["path"])
			assert.Equal(t, int64(tt.wantCode), fields["status"])
		})
	}
}

func TestRequestLogger_UserID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/me", func(c echo.Context) error {
		c.Set(CtxUserIDKey, int64(42))
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

	require.Len(t, logs.All(), 1)
	assert.Equal(t, int64(42), logs.All()[0].ContextMap()["user_id"])
}
