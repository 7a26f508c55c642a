// Package preview serves a finished dataset over HTTP as an HTML table and as
// a JSON document.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alfawal/LoA/internal/export"
	"github.com/alfawal/LoA/internal/stats"
)

const DefaultAddr = "127.0.0.1:8000"

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Provider}} champion win rates</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.75rem; text-align: left; }
tr.placeholder { color: #888; }
</style>
</head>
<body>
<h1>{{.Provider}} champion win rates</h1>
<p>Generated {{.GeneratedAt}} &middot; <a href="/json">JSON</a></p>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr{{if .Placeholder}} class="placeholder"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type pageRow struct {
	Cells       []string
	Placeholder bool
}

type pageData struct {
	Provider    string
	GeneratedAt string
	Columns     []string
	Rows        []pageRow
}

// Server serves one read-only dataset.
type Server struct {
	server *http.Server
	ds     stats.Dataset
	logger *slog.Logger
}

func New(addr string, ds stats.Dataset, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ds: ds, logger: logger}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Preview server listening", "addr", "http://"+s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleHTML)
	r.Get("/json", s.handleJSON)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleHTML(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Provider:    s.ds.Provider,
		GeneratedAt: s.ds.GeneratedAt.Format(time.RFC1123),
		Columns:     export.Columns,
		Rows:        make([]pageRow, 0, len(s.ds.Records)),
	}
	for _, rec := range s.ds.Records {
		data.Rows = append(data.Rows, pageRow{Cells: export.Row(rec), Placeholder: rec.Synthesized})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		s.logger.Error("Failed to render preview page", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(export.NewDocument(s.ds)); err != nil {
		s.logger.Error("Failed to encode preview JSON", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Preview request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
