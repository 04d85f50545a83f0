package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/realtime"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrOrderExists, http.StatusBadRequest},
		{fmt.Errorf("%w: quantity", service.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrInvalidFileLink, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrAccountNotVerified, http.StatusForbidden},
		{service.ErrNotParticipant, http.StatusForbidden},
		{fmt.Errorf("load order: %w", service.ErrOrderNotFound), http.StatusNotFound},
		{service.ErrCompanyNumberTaken, http.StatusConflict},
		{service.ErrUserHasRecords, http.StatusConflict},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrEmailUnavailable, http.StatusServiceUnavailable},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestHandleServiceError(t *testing.T) {
	t.Run("known errors echo the message", func(t *testing.T) {
		w := httptest.NewRecorder()
		handleServiceError(w, zap.NewNop(), service.ErrQuoteNotPending, "respond to quote")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body domain.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Bad Request", body.Error)
		assert.Equal(t, "Quote has already been answered", body.Message)
	})

	t.Run("unknown errors are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		handleServiceError(w, zap.NewNop(), errors.New("pq: relation missing"), "list orders")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body domain.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Failed to list orders", body.Message)
	})
}

func TestDecodeJSON(t *testing.T) {
	decodeBody := func(body string) (*httptest.ResponseRecorder, bool) {
		req := httptest.NewRequest(http.MethodPost, "/api/rfqs", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		var dst domain.CreateRfqRequest
		return w, decodeJSON(w, req, &dst)
	}

	t.Run("valid body", func(t *testing.T) {
		_, ok := decodeBody(`{"projectName":"Bracket","material":"Steel","quantity":5}`)
		assert.True(t, ok)
	})

	t.Run("empty body", func(t *testing.T) {
		w, ok := decodeBody("")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Request body is required")
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w, ok := decodeBody(`{"projectName":"Bracket","material":"Steel","quantity":0}`)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body domain.APIError
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, domain.ErrorTypeValidation, body.Type)
		assert.Contains(t, body.Errors, "quantity")
	})
}

func TestParseUUIDParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	_, ok := parseUUIDParam(w, req, "id", "order")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid order ID")
}

type rejectingResolver struct{ calls int }

func (r *rejectingResolver) Resolve(context.Context, string) (*auth.UserContext, error) {
	r.calls++
	return nil, errors.New("token expired")
}

func TestRealtimeConnect_RequiresToken(t *testing.T) {
	resolver := &rejectingResolver{}
	h := NewRealtimeHandler(realtime.NewHub(zap.NewNop()), resolver, zap.NewNop())

	w := httptest.NewRecorder()
	h.Connect(w, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing token")
	assert.Zero(t, resolver.calls)

	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w = httptest.NewRecorder()
	h.Connect(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
	assert.Equal(t, 1, resolver.calls)
}
