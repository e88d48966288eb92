package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/metrics"
	"github.com/roman-kulish/grid-track/internal/render"
)

const pageTitle = "Grid track"

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used to report handler failures.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTheme sets the color theme of the heatmaps.
func WithTheme(theme chart.ColorTheme) ServerOption {
	return func(s *Server) {
		s.style.theme = theme
	}
}

// WithAssetsHost serves the ECharts scripts from the given host instead of
// the public CDN.
func WithAssetsHost(host string) ServerOption {
	return func(s *Server) {
		s.style.assetsHost = host
	}
}

// Server exposes the live dashboard and its data over HTTP.
type Server struct {
	poller *Poller
	style  chartStyle
	logger *slog.Logger
	router chi.Router
}

// NewServer constructs a chi based HTTP server on top of the poller snapshots.
func NewServer(poller *Poller, options ...ServerOption) *Server {
	s := &Server{
		poller: poller,
		style:  chartStyle{theme: chart.DefaultColorTheme},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/", s.handleIndex)
	r.Get("/api/charts/{name}", s.handleChart)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/heatmap.png", s.handleHeatmapImage)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Samples   int    `json:"samples"`
	Cuts      int    `json:"cuts"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Failures  int64  `json:"failures"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	snap := s.poller.Snapshot()

	page := components.NewPage()
	page.SetPageTitle(pageTitle)
	page.SetLayout(components.PageFlexLayout)
	if s.style.assetsHost != "" {
		page.SetAssetsHost(s.style.assetsHost)
	}

	for _, name := range ChartNames {
		c, _ := buildChart(name, snap, s.style)
		c.AddJSFuncStrs(pollScript(name, s.poller.Interval()))
		page.AddCharts(c)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.logger.Error("rendering dashboard page", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	c, ok := buildChart(name, s.poller.Snapshot(), s.style)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chart '%s'", name))
		return
	}
	c.Validate()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, string(c.JSONNotEscaped()))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.poller.Snapshot())
}

func (s *Server) handleHeatmapImage(w http.ResponseWriter, _ *http.Request) {
	renderer, err := render.NewHeatmapRenderer(render.Config{ColorTheme: s.style.theme})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	img, err := renderer.Render(s.poller.Snapshot())
	if err != nil {
		s.logger.Error("rendering heatmap image", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to render heatmap")
		return
	}

	var buf bytes.Buffer
	if err = render.Encode(&buf, img, render.ImagePNG); err != nil {
		s.logger.Error("encoding heatmap image", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to encode heatmap")
		return
	}

	w.Header().Set("Content-Type", render.ImagePNG.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.poller.Snapshot()

	resp := healthResponse{
		Status:   "ok",
		Samples:  snap.SampleCount,
		Cuts:     snap.CutCount,
		Failures: s.poller.Failures(),
	}
	if t := s.poller.UpdatedAt(); !t.IsZero() {
		resp.UpdatedAt = t.UTC().Format(time.RFC3339Nano)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

// writeJSON encodes the payload before writing the status, so that an
// unencodable payload is reported as a server error instead of a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		s.logger.Error("encoding response", slog.Any("error", err))

		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response", Code: status})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
