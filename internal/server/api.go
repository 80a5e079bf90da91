package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bloops-games/launched/internal/engine"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/logging"
	"github.com/bloops-games/launched/internal/metrics"
	"github.com/bloops-games/launched/internal/presence"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const HeaderRequestID = "X-Request-Id"

// maxBodySize bounds a presence event body.
const maxBodySize = 64 << 10

// Engine is what the HTTP surface needs from engine.Manager.
type Engine interface {
	Submit(ctx context.Context, ev presence.Event) error
	Profile(userID int64) (engine.Stats, error)
}

type activityRequest struct {
	Kind  string    `json:"kind"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
}

type eventRequest struct {
	UserID     int64            `json:"user_id"`
	Before     *activityRequest `json:"before"`
	After      *activityRequest `json:"after"`
	ObservedAt *time.Time       `json:"observed_at"`
}

type recordResponse struct {
	Name        string    `json:"name"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LaunchCount int       `json:"launch_count"`
	ActiveDays  int       `json:"active_days"`
	Marked      bool      `json:"marked"`
}

type statsResponse struct {
	UserID        int64            `json:"user_id"`
	MostLaunched  *string          `json:"most_launched"`
	LeastLaunched *string          `json:"least_launched"`
	LastLaunched  *string          `json:"last_launched"`
	Games         []recordResponse `json:"games"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter mounts the API. A nil gatherer leaves /metrics out.
func NewRouter(ctx context.Context, eng Engine, m metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	if m == nil {
		m = metrics.Noop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(ctx))
	r.Use(instrument(m))

	r.Method(http.MethodGet, "/health", HandleHealth(ctx))
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/presence", handlePresence(eng))
	r.Get("/users/{id}/stats", handleStats(eng))

	return r
}

// requestLogger echoes or assigns a request id and carries it in the logger.
func requestLogger(ctx context.Context) func(http.Handler) http.Handler {
	base := logging.FromContext(ctx).Named("server.http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.New().String()
			}
			w.Header().Set(HeaderRequestID, id)

			logger := base.With("request_id", id)
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
		})
	}
}

func instrument(m metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				endpoint = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.IncRequestsTotal(endpoint, status)
			m.ObserveRequestDuration(endpoint, time.Since(start))
		})
	}
}

func HandleHealth(_ context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func handlePresence(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		var req eventRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %v", err)})
			return
		}

		ev, err := req.event()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		if err := eng.Submit(r.Context(), ev); err != nil {
			logger.Errorf("submit event: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "engine unavailable"})
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (req eventRequest) event() (presence.Event, error) {
	if req.UserID == 0 {
		return presence.Event{}, fmt.Errorf("user_id is required")
	}

	before, err := req.Before.activity()
	if err != nil {
		return presence.Event{}, fmt.Errorf("before: %w", err)
	}

	after, err := req.After.activity()
	if err != nil {
		return presence.Event{}, fmt.Errorf("after: %w", err)
	}

	ev := presence.Event{UserID: req.UserID, Before: before, After: after}
	if req.ObservedAt != nil {
		ev.ObservedAt = *req.ObservedAt
	}

	return ev, nil
}

// activity maps the wire activity onto the two kinds the engine knows. Any
// kind other than playing is idle.
func (a *activityRequest) activity() (presence.Activity, error) {
	if a == nil || !strings.EqualFold(a.Kind, presence.KindPlaying.String()) {
		return presence.Idle(), nil
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		return presence.Activity{}, fmt.Errorf("playing activity without a name")
	}

	return presence.Playing(name, a.Start), nil
}

func handleStats(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
			return
		}

		stats, err := eng.Profile(id)
		if errors.Is(err, engine.ErrNotRegistered) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not registered"})
			return
		}
		if err != nil {
			logging.FromContext(r.Context()).Errorf("profile: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		writeJSON(w, http.StatusOK, newStatsResponse(stats))
	}
}

func newStatsResponse(stats engine.Stats) statsResponse {
	resp := statsResponse{
		UserID:        stats.UserID,
		MostLaunched:  recordName(stats.MostLaunched),
		LeastLaunched: recordName(stats.LeastLaunched),
		LastLaunched:  recordName(stats.LastLaunched),
		Games:         make([]recordResponse, 0, len(stats.Games)),
	}

	for _, g := range stats.Games {
		resp.Games = append(resp.Games, recordResponse{
			Name:        g.Name,
			FirstSeen:   g.FirstSeen,
			LastSeen:    g.LastSeen,
			LaunchCount: g.LaunchCount,
			ActiveDays:  g.ActiveDays,
			Marked:      g.Marked,
		})
	}

	return resp
}

func recordName(r *gamestat.Record) *string {
	if r == nil {
		return nil
	}
	name := r.Name
	return &name
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
