// Package server exposes a loaded comparison to a local browser. Pointer
// events arrive as HTTP requests and are applied one at a time, so a client
// never sees the charts and the summary text disagree.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/defstat/internal/census"
	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/KaramelBytes/defstat/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed static/index.html
var static embed.FS

// Server owns one bound comparator and the surfaces it drives.
type Server struct {
	mu       sync.Mutex
	sess     *session.Session
	cmp      *compare.Comparator
	surfaces []chart.Interactive
	byName   map[string]chart.Interactive
	text     *chart.TextBox
	router   chi.Router
	// lastSeq is the newest client sequence number applied.
	lastSeq  int64
}

// New builds the surfaces for layout, binds them to the session and sets up routes.
func New(sess *session.Session, layout compare.Layout, opt chart.Options) (*Server, error) {
	if sess == nil || sess.Result == nil {
		return nil, eris.New("server: no loaded session")
	}
	surfaces, err := chart.ForLayout(layout, opt)
	if err != nil {
		return nil, err
	}
	text := &chart.TextBox{}
	cmp, err := compare.Bind(sess.Inputs(), chart.AsSurfaces(surfaces), text)
	if err != nil {
		return nil, err
	}
	s := &Server{
		sess:     sess,
		cmp:      cmp,
		surfaces: surfaces,
		byName:   make(map[string]chart.Interactive, len(surfaces)),
		text:     text,
	}
	for _, sf := range surfaces {
		s.byName[sf.Name()] = sf
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/charts/{file}", s.handleChart)
	r.Route("/api", func(r chi.Router) {
		r.Get("/comparison", s.handleComparison)
		r.Get("/summary", s.handleSummary)
		r.Post("/hover", s.handleHover)
		r.Post("/leave", s.handleLeave)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("addr", addr), zap.String("load_id", s.sess.ID))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// Snapshot is the hover state as a client sees it.
type Snapshot struct {
	Index      int            `json:"index"`
	Category   string         `json:"category,omitempty"`
	Text       string         `json:"text"`
	Color      string         `json:"color,omitempty"`
	Emphasized map[string]int `json:"emphasized"`
	Seq        int64          `json:"seq"`
	Stale      bool           `json:"stale,omitempty"`
}

// snapshot must be called with s.mu held.
func (s *Server) snapshot() Snapshot {
	text, color := s.text.Text()
	snap := Snapshot{
		Index:      s.cmp.State().Index,
		Text:       text,
		Color:      color,
		Emphasized: make(map[string]int, len(s.surfaces)),
		Seq:        s.lastSeq,
	}
	if snap.Index != compare.NoCategory {
		snap.Category = census.Category(snap.Index).String()
	}
	for _, sf := range s.surfaces {
		snap.Emphasized[sf.Name()] = sf.Emphasized()
	}
	return snap
}

// CategoryRow is one line of the comparison payload.
type CategoryRow struct {
	Label     string  `json:"label"`
	Color     string  `json:"color"`
	Count     int     `json:"count"`
	Sample    float64 `json:"sample_pct"`
	Reference float64 `json:"reference_pct"`
	Diff      float64 `json:"diff_pct"`
}

// Comparison is the payload of GET /api/comparison.
type Comparison struct {
	LoadID       string        `json:"load_id"`
	Requested    int           `json:"requested_year"`
	Year         int           `json:"year"`
	File         string        `json:"file"`
	Rows         int           `json:"rows"`
	Classified   int           `json:"classified"`
	Unclassified int           `json:"unclassified"`
	Layout       string        `json:"layout"`
	Surfaces     []string      `json:"surfaces"`
	Categories   []CategoryRow `json:"categories"`
	LoadedAt     time.Time     `json:"loaded_at"`
}

func (s *Server) handleComparison(w http.ResponseWriter, _ *http.Request) {
	res := s.sess.Result
	out := Comparison{
		LoadID:       s.sess.ID,
		Requested:    s.sess.Requested,
		Year:         s.sess.Source.Year,
		File:         s.sess.Source.Name,
		Rows:         s.sess.Rows,
		Classified:   res.Total,
		Unclassified: res.Unclassified,
		Layout:       s.cmp.Layout().String(),
		LoadedAt:     s.sess.LoadedAt,
	}
	for _, sf := range s.surfaces {
		out.Surfaces = append(out.Surfaces, sf.Name())
	}
	for _, row := range res.Rows() {
		out.Categories = append(out.Categories, CategoryRow{
			Label:     row.Label,
			Color:     s.sess.Palette.Of(row.Category),
			Count:     row.Count,
			Sample:    row.Sample,
			Reference: row.Reference,
			Diff:      row.Diff(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	name := strings.TrimSuffix(strings.TrimSuffix(file, ".svg"), ".png")

	s.mu.Lock()
	sf, ok := s.byName[name]
	var img []byte
	var ct string
	if ok {
		img = append([]byte(nil), sf.Image()...)
		ct = sf.ContentType()
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface "+name)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// HoverRequest is a pointer position on a named surface, or an explicit index.
// Seq, when set, orders events from one client: anything not newer than the
// last applied event is ignored.
type HoverRequest struct {
	Surface string   `json:"surface"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Index   *int     `json:"index,omitempty"`
	Seq     int64    `json:"seq,omitempty"`
}

// LeaveRequest is the pointer leaving every surface.
type LeaveRequest struct {
	Seq int64 `json:"seq,omitempty"`
}

// accept reports whether an event with seq is newer than what was applied.
// It must be called with s.mu held.
func (s *Server) accept(seq int64) bool {
	if seq == 0 {
		return true
	}
	if seq <= s.lastSeq {
		return false
	}
	s.lastSeq = seq
	return true
}

func (s *Server) staleSnapshot() Snapshot {
	snap := s.snapshot()
	snap.Stale = true
	return snap
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req HoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Index == nil && (req.X == nil || req.Y == nil) {
		writeError(w, http.StatusBadRequest, "either index or x and y are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, ok := s.byName[req.Surface]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface "+req.Surface)
		return
	}
	if !s.accept(req.Seq) {
		writeJSON(w, http.StatusOK, s.staleSnapshot())
		return
	}
	if req.Index != nil {
		if err := s.cmp.Hover(*req.Index); err != nil {
			zap.L().Warn("hover update failed", zap.String("surface", req.Surface), zap.Error(err))
		}
	} else {
		// The surface's callback drives the comparator.
		sf.PointerAt(*req.X, *req.Y)
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept(req.Seq) {
		writeJSON(w, http.StatusOK, s.staleSnapshot())
		return
	}
	if err := s.cmp.Leave(); err != nil {
		zap.L().Warn("leave update failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	b, err := static.ReadFile("static/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
