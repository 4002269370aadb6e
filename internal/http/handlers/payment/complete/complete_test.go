package complete

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
	"github.com/magabrotheeeer/pi-premium/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Complete(ctx context.Context, paymentID, txid string) (*payment.CompleteResult, error) {
	args := m.Called(ctx, paymentID, txid)
	res, _ := args.Get(0).(*payment.CompleteResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCompleteHandler_ServeHTTP(t *testing.T) {
	expiry := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		body        string
		mockRes     *payment.CompleteResult
		mockErr     error
		callService bool
		wantStatus  int
		wantBody    string
	}{
		{
			name:        "completed",
			body:        `{"paymentId":"pay-1","txid":"tx-1"}`,
			mockRes:     &payment.CompleteResult{PiUID: "pi-1", AddedDays: 30, NewExpiry: expiry},
			callService: true,
			wantStatus:  http.StatusOK,
			wantBody:    `{"success":true,"new_expiry":"2026-02-01T12:30:00Z"}`,
		},
		{
			name:        "completion rejected",
			body:        `{"paymentId":"pay-1","txid":"tx-1"}`,
			mockErr:     fmt.Errorf("services.payment.Complete: %w", paymentprovider.ErrCompletionFailed),
			callService: true,
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"success":false,"message":"Completion failed"}`,
		},
		{
			name:        "details unavailable",
			body:        `{"paymentId":"pay-1","txid":"tx-1"}`,
			mockErr:     fmt.Errorf("services.payment.Complete: %w", paymentprovider.ErrFetchFailed),
			callService: true,
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"success":false,"message":"Cannot fetch payment details"}`,
		},
		{
			name:        "no payer",
			body:        `{"paymentId":"pay-1","txid":"tx-1"}`,
			mockErr:     fmt.Errorf("services.payment.Complete: %w", payment.ErrUserNotIdentified),
			callService: true,
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"success":false,"message":"User not identified"}`,
		},
		{
			name:        "storage failure",
			body:        `{"paymentId":"pay-1","txid":"tx-1"}`,
			mockErr:     errors.New("db down"),
			callService: true,
			wantStatus:  http.StatusInternalServerError,
			wantBody:    `{"success":false,"message":"internal error"}`,
		},
		{
			name:       "missing txid",
			body:       `{"paymentId":"pay-1"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"success":false,"message":"field TxID is a required field"}`,
		},
		{
			name:       "invalid json body",
			body:       `[]`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("Complete", mock.Anything, "pay-1", "tx-1").Return(tt.mockRes, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/complete", bytes.NewBufferString(tt.body))
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
