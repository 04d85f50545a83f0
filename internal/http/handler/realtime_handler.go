package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/realtime"
	"go.uber.org/zap"
)

// TokenResolver turns a raw bearer token into the caller's context
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*auth.UserContext, error)
}

// RealtimeHandler upgrades authenticated clients to the push channel
type RealtimeHandler struct {
	hub    *realtime.Hub
	tokens TokenResolver
	logger *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, tokens TokenResolver, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		tokens: tokens,
		logger: logger,
	}
}

// Connect godoc
// @Summary Open the realtime channel
// @Description Browsers cannot set headers on a WebSocket handshake, so the token may be passed as ?token=
// @Tags Realtime
// @Param token query string false "Bearer token"
// @Success 101
// @Failure 401 {object} domain.ErrorResponse
// @Router /ws [get]
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			token = header[7:]
		}
	}
	if token == "" {
		respondWithError(w, http.StatusUnauthorized, "Missing token")
		return
	}

	userCtx, err := h.tokens.Resolve(r.Context(), token)
	if err != nil {
		h.logger.Debug("ws: token rejected", zap.Error(err))
		respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	h.hub.Serve(w, r, userCtx.UserID)
}
