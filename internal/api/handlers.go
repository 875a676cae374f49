package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/models"
	"github.com/blockedby/resolver-os/internal/notifier"
	"github.com/blockedby/resolver-os/internal/resolver"
	"github.com/blockedby/resolver-os/internal/scraper"
	"github.com/blockedby/resolver-os/internal/stats"
	"github.com/blockedby/resolver-os/internal/telegram"
)

// Resolver is the engine surface the handler needs.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (*models.ChatRecord, resolver.Source, error)
}

// Handler serves the resolve endpoint and owns the error boundary that
// translates the engine's classified errors into the outward schema.
type Handler struct {
	engine  Resolver
	counter *stats.Counter
	notify  notifier.Notifier
	log     *logger.Logger
}

// NewHandler creates the resolve handler.
func NewHandler(engine Resolver, counter *stats.Counter, notify notifier.Notifier) *Handler {
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Handler{
		engine:  engine,
		counter: counter,
		notify:  notify,
		log:     logger.Get(),
	}
}

// ResolveUsername handles GET /resolveUsername?api_key=...&username=...
func (h *Handler) ResolveUsername(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("username")
	// echo the submitted casing back, only the "@" goes
	echo := strings.TrimPrefix(raw, "@")

	rec, source, err := h.engine.Resolve(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, echo, err)
		return
	}

	resp, err := BuildResponse(echo, *rec)
	if err != nil {
		h.writeError(w, r, echo, err)
		return
	}

	h.counter.Record(consumerFromContext(r.Context()), string(source))
	writeJSON(w, http.StatusOK, resp)
}

// writeError is the explicit error boundary: every classified error maps
// deterministically onto the outward schema, everything else becomes a 500
// after notifying the ops channel. Nothing is swallowed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, username string, err error) {
	var floodErr *telegram.FloodWaitError
	var exhaustedErr *telegram.AllFloodedError

	switch {
	case errors.Is(err, scraper.ErrInvalidUsername),
		errors.Is(err, telegram.ErrUsernameNotFound):
		writeJSON(w, http.StatusBadRequest,
			buildError(http.StatusBadRequest, "Bad Request: chat not found", 0))
	case errors.As(err, &floodErr):
		writeJSON(w, http.StatusTooManyRequests,
			buildError(http.StatusTooManyRequests, "Telegram forces us to wait", floodErr.Seconds))
	case errors.As(err, &exhaustedErr):
		writeJSON(w, http.StatusTooManyRequests,
			buildError(http.StatusTooManyRequests, "Telegram forces us to wait", exhaustedErr.MinSeconds))
	default:
		h.log.Error().Err(err).Str("username", username).Msg("api: unclassified resolve failure")
		h.notify.Notify(r.Context(), notifier.NewEvent(notifier.EventInternalError, username,
			fmt.Sprintf("resolve %s: %v", username, err)))
		writeJSON(w, http.StatusInternalServerError,
			buildError(http.StatusInternalServerError, "Internal Server Error", 0))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		_ = err // client disconnected
	}
}
