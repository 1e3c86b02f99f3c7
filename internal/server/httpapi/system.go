package httpapi

import (
	"context"
	"net/http"
	"time"
)

const apiVersion = "1.0.0"

type endpointList struct {
	Auth   map[string]string `json:"auth"`
	Notes  map[string]string `json:"notes"`
	Upload map[string]string `json:"upload"`
	Health string            `json:"health"`
	Ready  string            `json:"ready"`
}

var endpoints = endpointList{
	Auth: map[string]string{
		"register": "POST /api/auth/register",
		"login":    "POST /api/auth/login",
	},
	Notes: map[string]string{
		"list":   "GET /api/notes",
		"create": "POST /api/notes",
		"get":    "GET /api/notes/:id",
		"update": "PUT /api/notes/:id",
		"delete": "DELETE /api/notes/:id",
	},
	Upload: map[string]string{
		"upload": "POST /api/upload",
		"url":    "GET /api/upload/:id",
	},
	Health: "GET /health",
	Ready:  "GET /ready",
}

type statusJSON struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type infoJSON struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Version   string       `json:"version"`
	Endpoints endpointList `json:"endpoints"`
	Timestamp string       `json:"timestamp"`
}

type notFoundJSON struct {
	Success            bool         `json:"success"`
	Message            string       `json:"message"`
	Path               string       `json:"path"`
	Method             string       `json:"method"`
	AvailableEndpoints endpointList `json:"availableEndpoints"`
}

func (h *handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusJSON{Success: true, Message: "Server is running", Timestamp: h.timestamp()})
}

// ready pings the database with a short deadline.
func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.rs.logger.Warn(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, statusJSON{Message: "Database unavailable", Timestamp: h.timestamp()})
		return
	}
	writeJSON(w, http.StatusOK, statusJSON{Success: true, Message: "Server is ready", Timestamp: h.timestamp()})
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoJSON{
		Success:   true,
		Message:   "Cloud Assignment API",
		Version:   apiVersion,
		Endpoints: endpoints,
		Timestamp: h.timestamp(),
	})
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundJSON{
		Message:            "Route not found",
		Path:               r.URL.Path,
		Method:             r.Method,
		AvailableEndpoints: endpoints,
	})
}
