package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/config"
	"weekcal/internal/layout"
	appLog "weekcal/internal/log"
	"weekcal/internal/nav"
	"weekcal/internal/source"
	"weekcal/internal/week"
)

// Snapshotter hands out the scheduler's precomputed current week.
type Snapshotter interface {
	Snapshot() (layout.Output, bool)
}

// Server provides the week layout over HTTP: JSON APIs for interactive
// hosts and a static HTML rendering for capture.
type Server struct {
	cfg    *config.Config
	engine *layout.Engine
	src    source.Source
	snaps  Snapshotter
	mux    *http.ServeMux
}

// NewServer constructs a new Server. snaps may be nil.
func NewServer(cfg *config.Config, engine *layout.Engine, src source.Source, snaps Snapshotter) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		src:    src,
		snaps:  snaps,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than lock everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/api/slot", s.handleSlot)
	s.mux.HandleFunc("/api/nav", s.handleNav)
	s.mux.HandleFunc("/calendar", s.handleCalendar)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path, err := config.ExpandPath(s.cfg.Capture.Output)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid preview path")
		return
	}
	// ServeFile maps a missing file to 404.
	http.ServeFile(w, r, path)
}

// handleWeek returns the layout of the week containing ?date (default
// today), optionally filtered by repeated ?assignee params.
//
// GET /api/week?date=2025-10-16&assignee=ana&assignee=ben
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.compute(r.Context(), q.Get("date"), q["assignee"])
	if err != nil {
		s.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type slotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// handleSlot translates an activated grid cell into the instants a new task
// would span.
//
// GET /api/slot?date=2025-10-16&hour=9&minute=45
func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := civil.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	hour, herr := strconv.Atoi(q.Get("hour"))
	minute := parseIntDefault(q.Get("minute"), 0)
	if herr != nil {
		writeError(w, http.StatusBadRequest, "invalid hour")
		return
	}

	clock := s.engine.Clock
	win := week.Compute(clock, clock.Midnight(d), s.engine.Time())
	start, end, err := win.SlotRange(win.IndexOf(d), hour, minute)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, slotResponse{Start: start, End: end})
}

type navResponse struct {
	Date      civil.Date `json:"date"`
	WeekStart civil.Date `json:"week_start"`
}

// handleNav applies one navigation step to ?date.
//
// GET /api/nav?date=2025-10-16&step=prev|next|today
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctrl := nav.New(s.engine.Clock, s.engine.Time)
	if raw := q.Get("date"); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		ctrl.SetReference(s.engine.Clock.Midnight(d))
	}

	switch q.Get("step") {
	case "prev":
		ctrl.PreviousWeek()
	case "next":
		ctrl.NextWeek()
	case "today":
		ctrl.GoToToday()
	default:
		writeError(w, http.StatusBadRequest, "step must be prev, next or today")
		return
	}

	writeJSON(w, http.StatusOK, navResponse{
		Date:      s.engine.Clock.DateOf(ctrl.Reference()),
		WeekStart: ctrl.Window().Monday(),
	})
}

var errBadDate = errors.New("invalid date")

// compute lays out the requested week. The unfiltered current week is served
// from the scheduler snapshot when one exists.
func (s *Server) compute(ctx context.Context, rawDate string, assignees []string) (layout.Output, error) {
	clock := s.engine.Clock
	now := s.engine.Time()
	ref := now
	if rawDate != "" {
		d, err := civil.ParseDate(rawDate)
		if err != nil {
			return layout.Output{}, errBadDate
		}
		ref = clock.Midnight(d)
	}

	win := week.Compute(clock, ref, now)
	if s.snaps != nil && len(assignees) == 0 {
		if snap, ok := s.snaps.Snapshot(); ok && snap.Window.Key() == win.Key() {
			return snap, nil
		}
	}

	tasks, err := s.src.ListTasks(ctx, win.Start, win.End)
	if err != nil {
		return layout.Output{}, err
	}
	return s.engine.Compute(layout.Input{
		Tasks:             tasks,
		Reference:         ref,
		SelectedAssignees: assignees,
		Users:             s.cfg.Users,
	}), nil
}

func (s *Server) writeComputeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("week compute failed", err)
	writeError(w, http.StatusBadGateway, "failed to load tasks")
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
