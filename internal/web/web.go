// Package web serves the travel widget: a JSON API for the latest
// planning result, a minimal HTML widget view for capture, and a
// refresh trigger.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"sync"
	"time"

	"leavenow/internal/config"
	appLog "leavenow/internal/log"
	"leavenow/internal/model"
)

// Server provides HTTP APIs for the widget and planning state.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	// refreshFn requests an out-of-band planning cycle; it must not
	// block the HTTP handler.
	refreshFn func()

	// listReminders yields the pending reminders for /api/reminders.
	listReminders func() ([]model.Reminder, error)

	// previewPath is where the capture pipeline writes the widget PNG.
	previewPath string

	mu        sync.RWMutex
	latest    model.RouteInfo
	updatedAt time.Time
}

// NewServer constructs a Server. refreshFn and listReminders may be
// nil if the corresponding endpoint is not wired.
func NewServer(cfg *config.Config, refreshFn func(), listReminders func() ([]model.Reminder, error), previewPath string) *Server {
	s := &Server{
		cfg:           cfg,
		mux:           http.NewServeMux(),
		refreshFn:     refreshFn,
		listReminders: listReminders,
		previewPath:   previewPath,
	}
	s.latest = model.RouteInfo{RouteName: "none", DestinationName: "starting up"}
	s.registerRoutes()
	return s
}

// SetRouteInfo publishes the result of a completed planning cycle.
func (s *Server) SetRouteInfo(info model.RouteInfo) {
	s.mu.Lock()
	s.latest = info
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// Handler returns the http.Handler, with Basic Auth applied when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="leavenow", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/route", s.handleRoute)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/reminders", s.handleReminders)
	s.mux.HandleFunc("/widget", s.handleWidget)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRoute returns the latest planning result plus its timestamp.
func (s *Server) handleRoute(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := struct {
		model.RouteInfo
		UpdatedAt time.Time `json:"updated_at"`
	}{s.latest, s.updatedAt}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		appLog.Error("route response encode failed", err)
	}
}

// handleRefresh requests an out-of-band planning cycle. The cycle runs
// asynchronously; the current state remains served until it completes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.refreshFn == nil {
		http.Error(w, "refresh not available", http.StatusServiceUnavailable)
		return
	}
	s.refreshFn()
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("refresh requested"))
}

// handleReminders lists the pending reminders from the notification
// store.
func (s *Server) handleReminders(w http.ResponseWriter, _ *http.Request) {
	pending := []model.Reminder{}
	if s.listReminders != nil {
		var err error
		pending, err = s.listReminders()
		if err != nil {
			appLog.Error("pending reminders read failed", err)
			http.Error(w, "reminder store unavailable", http.StatusInternalServerError)
			return
		}
		if pending == nil {
			pending = []model.Reminder{}
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(pending); err != nil {
		appLog.Error("reminders response encode failed", err)
	}
}

// handlePreview serves the last captured widget PNG.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.previewPath)
	if err != nil {
		http.Error(w, "no preview available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// widgetTmpl is the capture-facing widget view. The data-ready
// attribute signals the capture pipeline that rendering is complete.
var widgetTmpl = template.Must(template.New("widget").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>leavenow</title></head>
<body data-ready="true">
  <div class="widget">
    <h1>{{.Destination}}</h1>
    <p class="route">{{.RouteName}}</p>
    <p class="time">{{.TravelMinutes}} min</p>
    {{if .Arrival}}<p class="arrival">arrive ~{{.Arrival}}</p>{{end}}
  </div>
</body>
</html>
`))

func (s *Server) handleWidget(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	info := s.latest
	s.mu.RUnlock()

	data := struct {
		Destination   string
		RouteName     string
		TravelMinutes int
		Arrival       string
	}{
		Destination:   info.DestinationName,
		RouteName:     info.RouteName,
		TravelMinutes: (info.RouteTimeSeconds + 59) / 60,
	}
	if info.ArrivalEstimate != nil {
		data.Arrival = info.ArrivalEstimate.Format("15:04")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetTmpl.Execute(w, data); err != nil {
		appLog.Error("widget render failed", err)
	}
}
