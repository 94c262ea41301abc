// internal/api/server.go
package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/logger"
)

// NewRouter wires every route. staticDir may be empty, in which case
// /static/ is not served.
func NewRouter(h *Handler, staticDir string, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /activities", h.ListActivities)
	mux.HandleFunc("POST /activities/{name}/signup", h.Signup)
	mux.HandleFunc("POST /activities/{name}/unregister", h.Unregister)

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	if staticDir != "" {
		mux.Handle("GET /static/{file...}", staticFiles(staticDir))
	}

	return withRequestID(withAccessLog(log, mux))
}

// staticFiles serves files under dir directly so that index.html answers
// 200 at its own path. Directory requests resolve to their index.html.
func staticFiles(dir string) http.Handler {
	root := http.Dir(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := "/" + r.PathValue("file")
		if strings.HasSuffix(name, "/") {
			name += "index.html"
		}

		f, err := root.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
}
