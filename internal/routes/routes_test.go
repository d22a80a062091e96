package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-dashboard-server/internal/config"
	"clinic-dashboard-server/internal/metrics"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/schedule"
	"clinic-dashboard-server/internal/store"
	"clinic-dashboard-server/internal/utils"
)

// clinicAPI is an in-memory stand-in for the upstream appointments API.
type clinicAPI struct {
	mu           sync.Mutex
	appointments map[string]models.Appointment
}

func (api *clinicAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/appointments":
		list := make([]models.Appointment, 0, len(api.appointments))
		for _, a := range api.appointments {
			list = append(list, a)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "appointments": list})
	case r.Method == http.MethodGet && r.URL.Path == "/api/users":
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 10, "fullName": "Alice Walker", "role": "patient"},
			{"id": 20, "fullName": "Dr. Smith", "role": "doctor"},
		})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/appointments/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
		a, ok := api.appointments[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Appointment not found"})
			return
		}
		var fields models.AppointmentFields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a = fields.Apply(a)
		api.appointments[id] = a
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "appointment": a})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (api *clinicAPI) get(id string) models.Appointment {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.appointments[id]
}

type testEnv struct {
	router *gin.Engine
	token  string
	api    *clinicAPI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tomorrow := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	api := &clinicAPI{appointments: map[string]models.Appointment{
		"1": {ID: "1", PatientID: "10", PatientName: "Alice Walker", DoctorID: "20", DoctorName: "Dr. Smith", Date: tomorrow, Status: models.StatusPending},
		"2": {ID: "2", PatientID: "10", PatientName: "Alice Walker", DoctorID: "20", DoctorName: "Dr. Smith", Date: tomorrow.Add(2 * time.Hour), Status: models.StatusConfirmed},
	}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	remote := store.RemoteConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}
	reg := prometheus.NewRegistry()
	dashboard := schedule.NewDashboard(schedule.Deps{
		Store:     store.NewRemoteStore(remote),
		Directory: store.NewRemoteDirectory(remote),
		Metrics:   metrics.NewDashboardMetrics(reg),
	})

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationMinutes: 5}
	router := gin.New()
	SetupRoutes(router, Deps{Config: cfg, Dashboard: dashboard, Gatherer: reg})

	token, err := utils.GenerateToken("desk-1", models.RoleReceptionist, cfg)
	require.NoError(t, err)
	return &testEnv{router: router, token: token, api: api}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodGet, "/api/v1/dashboard?status=confirmed", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var view schedule.View
	require.NoError(t, json.Unmarshal(res.Data, &view))
	assert.Equal(t, 2, view.Stats.Total)
	assert.Equal(t, 1, view.Stats.Upcoming)
	require.Len(t, view.Appointments, 1)
	assert.Equal(t, models.ID("2"), view.Appointments[0].ID)
	require.Len(t, view.Events, 1)
	assert.Equal(t, schedule.ColorGreen, view.Events[0].Style.BackgroundColor)

	code, res = env.do(t, http.MethodPost, "/api/v1/appointments/1/actions/cancel", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, "Appointment cancelled", res.Message)
	assert.Equal(t, models.StatusCancelled, env.api.get("1").Status)

	code, res = env.do(t, http.MethodGet, "/api/v1/dashboard?status=all", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &view))
	assert.Equal(t, 1, view.Stats.Cancelled)
	assert.Equal(t, 0, view.Stats.Pending)

	code, res = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	var notes []models.Notification
	require.NoError(t, json.Unmarshal(res.Data, &notes))
	require.NotEmpty(t, notes)
	assert.Equal(t, "Appointment cancelled", notes[0].Message)
}

func TestMoveKeepsDuration(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/api/v1/dashboard/refresh", nil)
	require.Equal(t, http.StatusOK, code)

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	code, res := env.do(t, http.MethodPatch, "/api/v1/appointments/2/move", map[string]any{"start": start})
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, "Appointment rescheduled successfully", res.Message)

	moved := env.api.get("2")
	assert.True(t, moved.Date.Equal(start))
	require.NotNil(t, moved.EndTime)
	assert.True(t, moved.EndTime.Equal(start.Add(time.Hour)))
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(time.Hour).UTC()

	code, res := env.do(t, http.MethodPatch, "/api/v1/appointments/404/reschedule",
		map[string]any{"start": start, "end": start.Add(time.Hour)})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Failed to reschedule appointment", res.Message)

	code, _ = env.do(t, http.MethodPatch, "/api/v1/appointments/1/reschedule",
		map[string]any{"start": start, "end": start})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/appointments/1/actions/archive", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/dashboard?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = env.do(t, http.MethodPost, "/api/v1/appointments", map[string]any{"patientId": "10"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Error, "doctorId is required")
}

func TestDirectoryAndSlots(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodGet, "/api/v1/directory/doctors", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var doctors []models.Person
	require.NoError(t, json.Unmarshal(res.Data, &doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Smith", doctors[0].Name)

	start := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	code, res = env.do(t, http.MethodPost, "/api/v1/calendar/slots", map[string]any{"start": start, "end": start.Add(30 * time.Minute)})
	require.Equal(t, http.StatusOK, code, res.Error)
	var draft models.Appointment
	require.NoError(t, json.Unmarshal(res.Data, &draft))
	assert.Equal(t, models.StatusPending, draft.Status)
	assert.True(t, draft.Date.Equal(start))
}

func TestProfileAndRenew(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"userId":"desk-1","role":"receptionist"}`, string(res.Data))

	code, res = env.do(t, http.MethodPost, "/api/v1/auth/renew", nil)
	require.Equal(t, http.StatusOK, code)
	var renewed struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &renewed))
	assert.Equal(t, 300, renewed.ExpiresIn)
	claims, err := utils.ValidateToken(renewed.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleReceptionist, claims.Role)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/api/v1/dashboard/refresh", nil)
	require.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `clinic_dashboard_operations_total{operation="fetch",outcome="success"} 1`)
}
