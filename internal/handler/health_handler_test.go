package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/service"
)

func TestHealthHandler_ReportsSerialState(t *testing.T) {
	gin.SetMode(gin.TestMode)

	manager := service.NewConnectionManager(serial.NewMockDriver(), nil, &config.SerialConfig{}, zap.NewNop())
	cfg := &config.Config{App: config.AppConfig{Name: "serial-service", Version: "test"}}

	router := gin.New()
	NewHealthHandler(manager, nil, cfg, zap.NewNop()).RegisterRoutes(router)

	get := func(path string) (int, HealthResponse) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w.Code, resp
	}

	code, health := get("/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "CLOSED", health.Checks["serial"].Data["state"])
	assert.NotContains(t, health.Checks, "database")

	_, err := manager.Open(context.Background(), &service.OpenRequest{Path: "COM7", BaudRate: 9600})
	require.NoError(t, err)

	_, health = get("/health")
	assert.Equal(t, "OPEN", health.Checks["serial"].Data["state"])
	assert.Equal(t, "COM7", health.Checks["serial"].Data["path"])

	code, _ = get("/ready")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get("/live")
	assert.Equal(t, http.StatusOK, code)
}
