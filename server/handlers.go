package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tunehub/config"
	"tunehub/repository"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo       repository.UserRepository
	artistRepo     repository.ArtistRepository
	genreRepo      repository.GenreRepository
	songRepo       repository.SongRepository
	playlistRepo   repository.PlaylistRepository
	engagementRepo repository.EngagementRepository
	cfg            *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	artistRepo repository.ArtistRepository,
	genreRepo repository.GenreRepository,
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	engagementRepo repository.EngagementRepository,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:       userRepo,
		artistRepo:     artistRepo,
		genreRepo:      genreRepo,
		songRepo:       songRepo,
		playlistRepo:   playlistRepo,
		engagementRepo: engagementRepo,
		cfg:            cfg,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAccessDenied is the flash-style authorization failure: a message
// plus the page the client should land on instead of the refused one.
func writeAccessDenied(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, map[string]string{
		"error":    message,
		"redirect": "/discover/",
	})
}

// pathID extracts a numeric id path variable.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// clientIP resolves the requester's address, preferring the first entry of
// X-Forwarded-For and falling back to the direct remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}
