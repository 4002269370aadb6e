package pipremium

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pi-premium/internal/config"
	"github.com/magabrotheeeer/pi-premium/internal/lib/metrics"
	"github.com/magabrotheeeer/pi-premium/internal/lib/money"
	"github.com/magabrotheeeer/pi-premium/internal/models"
	paymentservice "github.com/magabrotheeeer/pi-premium/internal/services/payment"
)

type stubServices struct {
	expiry time.Time
}

func (s stubServices) Verify(_ context.Context, _, clientUID, clientUsername string) (*models.User, error) {
	u := models.NewUser(clientUID, clientUsername)
	return &u, nil
}

func (s stubServices) Approve(context.Context, string) error { return nil }

func (s stubServices) Complete(context.Context, string, string) (*paymentservice.CompleteResult, error) {
	return &paymentservice.CompleteResult{PiUID: "pi-1", AddedDays: 30, NewExpiry: s.expiry}, nil
}

func (s stubServices) Info(_ context.Context, piUID string) (*models.UserInfo, error) {
	return &models.UserInfo{User: models.NewUser(piUID, "alice"), RemainingDays: 3}, nil
}

func (s stubServices) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	stub := stubServices{expiry: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	registry := prometheus.NewRegistry()
	metrics.New(registry).PaymentCompleted(money.FromPi(2), 30)

	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)),
		config.HTTPServer{CORSAllowedOrigins: []string{"https://app.example.com"}},
		Services{
			Auth:     stub,
			Approve:  stub,
			Complete: stub,
			User:     stub,
			DB:       stub,
			Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		})
	return r
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{name: "auth verify", method: http.MethodPost, path: "/auth/verify",
			body: `{"accessToken":"tok","user":{"uid":"pi-1"}}`, wantStatus: http.StatusOK, wantKey: "user"},
		{name: "approve", method: http.MethodPost, path: "/payments/approve",
			body: `{"paymentId":"pay-1"}`, wantStatus: http.StatusOK, wantKey: "success"},
		{name: "complete", method: http.MethodPost, path: "/payments/complete",
			body: `{"paymentId":"pay-1","txid":"tx-1"}`, wantStatus: http.StatusOK, wantKey: "new_expiry"},
		{name: "user info", method: http.MethodGet, path: "/user/pi-1", wantStatus: http.StatusOK, wantKey: "user"},
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantKey: "success"},
		{name: "wrong method", method: http.MethodGet, path: "/payments/complete", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantKey != "" {
				var got map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Contains(t, got, tt.wantKey)
				assert.Equal(t, true, got["success"])
			}
		})
	}
}

func TestRoutes_UserInfoPassesPathParam(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/pi-42", nil))

	var got struct {
		User struct {
			PiUID         string `json:"pi_uid"`
			RemainingDays int    `json:"remaining_days"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "pi-42", got.User.PiUID)
	assert.Equal(t, 3, got.User.RemainingDays)
}

func TestRoutes_Metrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payments_completed_total{extended="true"} 1`)
	// Отдаётся реестр приложения, а не prometheus.DefaultRegisterer.
	assert.NotContains(t, rec.Body.String(), "go_goroutines")
}

func TestRoutes_MetricsNotRegisteredWithoutHandler(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), config.HTTPServer{},
		Services{DB: stubServices{}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_CORS(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/payments/approve", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/payments/approve", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
