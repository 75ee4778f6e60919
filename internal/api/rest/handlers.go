package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fortuna/gamestats/internal/fetch"
	"github.com/fortuna/gamestats/internal/service"
)

// Envelope codes carried alongside the HTTP status.
const (
	codeError   = 0
	codePartial = 1
	codeSuccess = 2
)

const successMaxAge = "public, max-age=3600"

// envelope is the response shape for every user-facing endpoint.
type envelope struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	Code     int    `json:"code"`
	Content  any    `json:"content,omitempty"`
}

// Handler holds the HTTP handlers for the collection API
type Handler struct {
	collections *service.CollectionService
}

// NewHandler creates a new handler backed by the collection service
func NewHandler(collections *service.CollectionService) *Handler {
	return &Handler{collections: collections}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "gamestats",
	})
}

// GetProfile returns a user's profile page data
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	refresh := boolParam(r, "refresh", false)

	profile, err := h.collections.Profile(r.Context(), username, refresh)
	if err != nil {
		respondCrawlError(w, username, err)
		return
	}

	w.Header().Set("Cache-Control", successMaxAge)
	respondJSON(w, http.StatusOK, envelope{
		Message:  "success",
		Username: username,
		Code:     codeSuccess,
		Content:  profile,
	})
}

// GetGames returns a page (or the whole) of a user's game collection
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	allPages := boolParam(r, "all", false)
	refresh := boolParam(r, "refresh", false)

	result, err := h.collections.Games(r.Context(), username, page, allPages, refresh)
	if result == nil {
		respondCrawlError(w, username, err)
		return
	}

	if result.Partial {
		log.Printf("[api] partial collection for %s: %v", username, err)
		respondJSON(w, http.StatusOK, envelope{
			Message:  "partial",
			Username: username,
			Code:     codePartial,
			Content:  result.Page,
		})
		return
	}

	w.Header().Set("Cache-Control", successMaxAge)
	respondJSON(w, http.StatusOK, envelope{
		Message:  "success",
		Username: username,
		Code:     codeSuccess,
		Content:  result.Page,
	})
}

// respondCrawlError maps fetch error kinds onto HTTP statuses and the
// envelope's error code.
func respondCrawlError(w http.ResponseWriter, username string, err error) {
	log.Printf("[api] crawl failed for %s: %v", username, err)

	status := http.StatusInternalServerError
	message := "Failed to fetch user data"

	switch {
	case fetch.IsNotFound(err):
		status = http.StatusNotFound
		message = "User not found"
	case fetch.IsBlocked(err):
		status = http.StatusServiceUnavailable
		message = "Source site is refusing automated requests"
	case fetch.IsRateLimited(err):
		status = http.StatusServiceUnavailable
		message = "Source site is rate limiting requests"
	case fetch.IsTransport(err):
		status = http.StatusBadGateway
		message = "Source site request failed"
	}

	respondJSON(w, status, envelope{
		Message:  message,
		Username: username,
		Code:     codeError,
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func boolParam(r *http.Request, name string, fallback bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
