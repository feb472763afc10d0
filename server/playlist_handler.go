package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tunehub/logger"
	"tunehub/model"
	"tunehub/repository"
)

// CreatePlaylistRequest is the body for creating a playlist.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// ListPlaylistsHandler lists the requesting user's playlists.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlists, err := h.playlistRepo.GetPlaylistsByUserID(userID)
	if err != nil {
		logger.Error("Failed to load playlists", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// CreatePlaylistHandler creates a playlist owned by the requesting user.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required.")
		return
	}

	playlist := &model.Playlist{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	id, err := h.playlistRepo.CreatePlaylist(playlist)
	if err != nil {
		logger.Error("Failed to create playlist", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Playlist created", logger.Int64("playlistId", id), logger.Int64("userId", userID))
	writeJSON(w, http.StatusCreated, playlist)
}

// PlaylistDetailHandler returns one playlist with its songs in position
// order. Private playlists are visible to their owner only.
func (h *APIHandler) PlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}
	if playlist.UserID != userID && !playlist.IsPublic {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	songIDs, err := h.playlistRepo.GetPlaylistSongIDs(playlist.ID)
	if err != nil {
		logger.Error("Failed to load playlist songs", logger.ErrorField(err), logger.Int64("playlistId", playlist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	songs := make([]*model.Song, 0, len(songIDs))
	for _, songID := range songIDs {
		song, err := h.songRepo.GetSongByID(songID)
		if err != nil {
			logger.Error("Failed to load playlist song", logger.ErrorField(err), logger.Int64("songId", songID))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if song != nil {
			songs = append(songs, song)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"playlist": playlist, "songs": songs})
}

// AddPlaylistSongHandler adds a song to a playlist the user owns. Adding an
// already-present song succeeds without duplicating it.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	songID, err := pathID(r, "songId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}
	song, err := h.songRepo.GetSongByID(songID)
	if err != nil {
		logger.Error("Failed to load song", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}

	if err := h.playlistRepo.AddSong(playlist.ID, songID); err != nil {
		logger.Error("Failed to add song to playlist", logger.ErrorField(err),
			logger.Int64("playlistId", playlist.ID), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song added to playlist."})
}

// RemovePlaylistSongHandler removes a song from a playlist the user owns.
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	songID, err := pathID(r, "songId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	if err := h.playlistRepo.RemoveSong(playlist.ID, songID); err != nil {
		logger.Error("Failed to remove song from playlist", logger.ErrorField(err),
			logger.Int64("playlistId", playlist.ID), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song removed from playlist."})
}

// DeletePlaylistHandler deletes a playlist the user owns.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.playlistRepo.DeletePlaylist(playlist.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to delete playlist", logger.ErrorField(err), logger.Int64("playlistId", playlist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Playlist deleted", logger.Int64("playlistId", playlist.ID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted."})
}

func (h *APIHandler) loadPlaylist(w http.ResponseWriter, r *http.Request) (*model.Playlist, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID")
		return nil, false
	}
	playlist, err := h.playlistRepo.GetPlaylistByID(id)
	if err != nil {
		logger.Error("Failed to load playlist", logger.ErrorField(err), logger.Int64("playlistId", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return nil, false
	}
	return playlist, true
}

// requireOwnPlaylist loads the playlist from the path and enforces that it
// belongs to the requesting user. Non-owners get a 404 so playlist IDs are
// not probeable.
func (h *APIHandler) requireOwnPlaylist(w http.ResponseWriter, r *http.Request) (*model.Playlist, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return nil, false
	}
	if playlist.UserID != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return nil, false
	}
	return playlist, true
}
