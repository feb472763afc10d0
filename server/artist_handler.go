package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"tunehub/logger"
)

// ArtistPageHandler is the public artist page: profile, catalog totals,
// follower count and the artist's songs. When the viewer is authenticated
// the payload also says whether they follow this artist.
func (h *APIHandler) ArtistPageHandler(w http.ResponseWriter, r *http.Request) {
	artistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	artist, err := h.artistRepo.GetArtistByID(artistID)
	if err != nil {
		logger.Error("Failed to load artist", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if artist == nil {
		writeError(w, http.StatusNotFound, "Artist not found")
		return
	}

	stats, err := h.artistRepo.GetArtistStats(artistID)
	if err != nil {
		logger.Error("Failed to load artist stats", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	followers, err := h.engagementRepo.FollowerCount(artistID)
	if err != nil {
		logger.Error("Failed to count followers", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	songs, err := h.songRepo.GetSongsByArtistID(artistID)
	if err != nil {
		logger.Error("Failed to load artist songs", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	payload := map[string]interface{}{
		"artist":        artist,
		"stats":         stats,
		"followerCount": followers,
		"songs":         songs,
	}

	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		following, err := h.engagementRepo.IsFollowing(userID, artistID)
		if err != nil {
			logger.Warn("Failed to read follow state", logger.ErrorField(err), logger.Int64("artistId", artistID))
		} else {
			payload["isFollowing"] = following
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// FollowArtistHandler toggles the user's follow on an artist and returns the
// resulting state with the updated follower count.
func (h *APIHandler) FollowArtistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	artistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	artist, err := h.artistRepo.GetArtistByID(artistID)
	if err != nil {
		logger.Error("Failed to load artist", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if artist == nil {
		writeError(w, http.StatusNotFound, "Artist not found")
		return
	}
	if artist.UserID == userID {
		writeError(w, http.StatusBadRequest, "You cannot follow yourself.")
		return
	}

	following, err := h.engagementRepo.ToggleFollow(userID, artistID)
	if err != nil {
		logger.Error("Failed to toggle follow", logger.ErrorField(err),
			logger.Int64("userId", userID), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	followers, err := h.engagementRepo.FollowerCount(artistID)
	if err != nil {
		logger.Error("Failed to count followers", logger.ErrorField(err), logger.Int64("artistId", artistID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"following":     following,
		"followerCount": followers,
	})
}

// UpdateArtistRequest is the body for editing the artist profile.
type UpdateArtistRequest struct {
	Name    string `json:"name"`
	Bio     string `json:"bio"`
	Website string `json:"website"`
	GenreID *int64 `json:"genreId"`
}

// UpdateArtistHandler edits the requesting artist's own profile.
func (h *APIHandler) UpdateArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist, ok := h.requireArtist(w, r)
	if !ok {
		return
	}

	var req UpdateArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Artist name is required.")
		return
	}

	artist.Name = req.Name
	artist.Bio = sql.NullString{String: req.Bio, Valid: req.Bio != ""}
	artist.Website = sql.NullString{String: req.Website, Valid: req.Website != ""}
	if req.GenreID != nil {
		artist.GenreID = sql.NullInt64{Int64: *req.GenreID, Valid: true}
	} else {
		artist.GenreID = sql.NullInt64{}
	}

	if err := h.artistRepo.UpdateArtist(artist); err != nil {
		logger.Error("Failed to update artist", logger.ErrorField(err), logger.Int64("artistId", artist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Artist profile updated", logger.Int64("artistId", artist.ID))
	writeJSON(w, http.StatusOK, artist)
}

// ProfileHandler returns the requesting user's account, profile and
// favorite genres, plus the artist record when they have one.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("Failed to load user", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	profile, err := h.userRepo.GetProfileByUserID(userID)
	if err != nil {
		logger.Error("Failed to load profile", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	genres, err := h.userRepo.GetFavoriteGenres(profile.ID)
	if err != nil {
		logger.Error("Failed to load favorite genres", logger.ErrorField(err), logger.Int64("profileId", profile.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	payload := map[string]interface{}{
		"user":           user,
		"profile":        profile,
		"favoriteGenres": genres,
	}

	if profile.IsArtist() {
		artist, err := h.artistRepo.GetArtistByUserID(userID)
		if err != nil {
			logger.Error("Failed to load artist record", logger.ErrorField(err), logger.Int64("userId", userID))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if artist != nil {
			payload["artist"] = artist
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// FavoriteGenresRequest is the body for replacing the user's favorite
// genres.
type FavoriteGenresRequest struct {
	GenreIDs []int64 `json:"genreIds"`
}

// SetFavoriteGenresHandler replaces the user's favorite genre set.
func (h *APIHandler) SetFavoriteGenresHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req FavoriteGenresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, genreID := range req.GenreIDs {
		genre, err := h.genreRepo.GetGenreByID(genreID)
		if err != nil {
			logger.Error("Failed to look up genre", logger.ErrorField(err), logger.Int64("genreId", genreID))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if genre == nil {
			writeError(w, http.StatusBadRequest, "Genre not found.")
			return
		}
	}

	profile, err := h.userRepo.GetProfileByUserID(userID)
	if err != nil {
		logger.Error("Failed to load profile", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := h.userRepo.SetFavoriteGenres(profile.ID, req.GenreIDs); err != nil {
		logger.Error("Failed to save favorite genres", logger.ErrorField(err), logger.Int64("profileId", profile.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite genres updated."})
}
