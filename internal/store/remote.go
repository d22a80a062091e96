package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-dashboard-server/internal/models"
)

const maxResponseBytes = 8 << 20

// RemoteConfig points the adapters at the clinic API.
type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Client  *http.Client
}

type remoteClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newRemoteClient(cfg RemoteConfig) *remoteClient {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &remoteClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    client,
	}
}

// envelope is the clinic API's wrapper. Any of the payload keys may be absent.
type envelope struct {
	Success      *bool                `json:"success"`
	Message      string               `json:"message"`
	Appointments []models.Appointment `json:"appointments"`
	Appointment  *models.Appointment  `json:"appointment"`
}

// do sends the request and returns the raw body of a 2xx response.
func (c *remoteClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &StoreError{Kind: KindValidation, Message: "encode request: " + err.Error(), Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, networkError(err, "build %s %s: %v", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError(err, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(err, "read %s %s: %v", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

func statusError(code int, body []byte) *StoreError {
	msg := http.StatusText(code)
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		msg = env.Message
	}

	kind := KindNetwork
	switch code {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &StoreError{Kind: kind, Message: fmt.Sprintf("HTTP error! status: %d: %s", code, msg)}
}

func failedEnvelope(env envelope) error {
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request reported failure"
		}
		return &StoreError{Kind: KindValidation, Message: msg}
	}
	return nil
}

// RemoteStore talks to the clinic API's /api/appointments resource.
type RemoteStore struct {
	client *remoteClient
}

// NewRemoteStore creates a RemoteStore.
func NewRemoteStore(cfg RemoteConfig) *RemoteStore {
	return &RemoteStore{client: newRemoteClient(cfg)}
}

var _ Store = (*RemoteStore)(nil)

func appointmentPath(id models.ID) string {
	return "/api/appointments/" + url.PathEscape(id.String())
}

// FetchAll accepts a bare array, an {"appointments": [...]} envelope or a
// single appointment object.
func (s *RemoteStore) FetchAll(ctx context.Context) ([]models.Appointment, error) {
	data, err := s.client.do(ctx, http.MethodGet, "/api/appointments", nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Appointment{}, nil
	}
	if trimmed[0] == '[' {
		var list []models.Appointment
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, networkError(err, "decode appointments: %v", err)
		}
		return list, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, networkError(err, "decode appointments: %v", err)
	}
	if _, ok := keys["appointments"]; ok {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, networkError(err, "decode appointments: %v", err)
		}
		if err := failedEnvelope(env); err != nil {
			return nil, err
		}
		if env.Appointments == nil {
			return []models.Appointment{}, nil
		}
		return env.Appointments, nil
	}
	if _, ok := keys["id"]; ok {
		var single models.Appointment
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, networkError(err, "decode appointment: %v", err)
		}
		return []models.Appointment{single}, nil
	}
	var env envelope
	_ = json.Unmarshal(trimmed, &env)
	if err := failedEnvelope(env); err != nil {
		return nil, err
	}
	return []models.Appointment{}, nil
}

// Update sends only the set fields.
func (s *RemoteStore) Update(ctx context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error) {
	data, err := s.client.do(ctx, http.MethodPut, appointmentPath(id), fields)
	if err != nil {
		return models.Appointment{}, err
	}
	return decodeSingle(data)
}

// Create posts a new appointment.
func (s *RemoteStore) Create(ctx context.Context, fields models.AppointmentFields) (models.Appointment, error) {
	data, err := s.client.do(ctx, http.MethodPost, "/api/appointments", fields)
	if err != nil {
		return models.Appointment{}, err
	}
	return decodeSingle(data)
}

// Delete removes an appointment.
func (s *RemoteStore) Delete(ctx context.Context, id models.ID) error {
	data, err := s.client.do(ctx, http.MethodDelete, appointmentPath(id), nil)
	if err != nil {
		return err
	}
	var env envelope
	if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &env) == nil {
		return failedEnvelope(env)
	}
	return nil
}

// decodeSingle reads a write response. An empty body, or an envelope that
// succeeded without an appointment, yields the zero Appointment so the
// caller applies the sent fields itself.
func decodeSingle(data []byte) (models.Appointment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Appointment{}, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return models.Appointment{}, networkError(err, "decode appointment: %v", err)
	}
	if _, ok := keys["appointment"]; ok || keys["success"] != nil {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return models.Appointment{}, networkError(err, "decode appointment: %v", err)
		}
		if err := failedEnvelope(env); err != nil {
			return models.Appointment{}, err
		}
		if env.Appointment != nil {
			return *env.Appointment, nil
		}
		if _, single := keys["id"]; !single {
			return models.Appointment{}, nil
		}
	}
	var a models.Appointment
	if err := json.Unmarshal(data, &a); err != nil {
		return models.Appointment{}, networkError(err, "decode appointment: %v", err)
	}
	return a, nil
}
