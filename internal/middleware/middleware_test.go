package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-dashboard-server/internal/config"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/utils"
)

func newProtectedRouter(cfg *config.Config, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(cfg), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		id, _ := GetUserIDFromContext(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret", JWTExpirationMinutes: 5}
	r := newProtectedRouter(cfg, models.RoleReceptionist, models.RoleAdmin)

	desk, err := utils.GenerateToken("desk-1", models.RoleReceptionist, cfg)
	require.NoError(t, err)
	patient, err := utils.GenerateToken("pat-1", models.RolePatient, cfg)
	require.NoError(t, err)
	expired, err := utils.GenerateTokenWithTTL("desk-1", models.RoleAdmin, cfg.JWTSecret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong role", "Bearer " + patient, http.StatusForbidden},
		{"receptionist", "Bearer " + desk, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "desk-1", w.Body.String())
			}
		})
	}
}

func TestRoleMiddlewareWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RoleAuthMiddleware(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggerAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&buf)))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(RequestIDHeader))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "rid-1", line["request_id"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
}

func TestRequestIDGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(zerolog.New(&buf)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "boom")
}
