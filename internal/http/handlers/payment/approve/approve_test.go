package approve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Approve(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestApproveHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		mockErr     error
		callService bool
		wantStatus  int
		wantBody    string
	}{
		{
			name:        "approved",
			body:        `{"paymentId":"pay-1"}`,
			callService: true,
			wantStatus:  http.StatusOK,
			wantBody:    `{"success":true}`,
		},
		{
			name:        "upstream rejects",
			body:        `{"paymentId":"pay-1"}`,
			mockErr:     paymentprovider.ErrApprovalFailed,
			callService: true,
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"success":false,"message":"Approval failed"}`,
		},
		{
			name:       "missing payment id",
			body:       `{}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"success":false,"message":"field PaymentID is a required field"}`,
		},
		{
			name:       "invalid json body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("Approve", mock.Anything, "pay-1").Return(tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/approve", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got json.RawMessage
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.JSONEq(t, tt.wantBody, string(got))
			svc.AssertExpectations(t)
		})
	}
}
