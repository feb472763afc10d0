package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tunehub/cache"
	"tunehub/core/upload"
	"tunehub/logger"
	"tunehub/model"
	"tunehub/repository"
	"tunehub/storage"

	"github.com/google/uuid"
)

var audioContentTypes = map[string]string{
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"ogg": "audio/ogg",
	"m4a": "audio/mp4",
}

// Object storage entry points, indirected so handler tests can substitute
// an in-memory store.
var (
	putObject    = storage.PutObject
	removeObject = storage.RemoveObject
	statObject   = storage.StatObject
	openObject   = func(ctx context.Context, key string) (io.ReadCloser, error) {
		return storage.OpenObject(ctx, key)
	}
)

// HomeHandler serves the landing page data: featured songs, charts, genres
// with counts and library-wide totals. Recent plays are included when the
// request carries a valid token.
func (h *APIHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	featured, err := h.songRepo.MostPlayed(8)
	if err != nil {
		logger.Error("Failed to load featured songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	mostPlayed, err := h.songRepo.MostPlayed(5)
	if err != nil {
		logger.Error("Failed to load most played", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	mostDownloaded, err := h.songRepo.MostDownloaded(5)
	if err != nil {
		logger.Error("Failed to load most downloaded", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	genres, err := h.genreRepo.GetGenresWithCounts()
	if err != nil {
		logger.Error("Failed to load genre counts", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	totalSongs, totalPlays, totalDownloads, err := h.songRepo.LibraryTotals()
	if err != nil {
		logger.Error("Failed to load library totals", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	payload := map[string]interface{}{
		"featuredSongs":  featured,
		"mostPlayed":     mostPlayed,
		"mostDownloaded": mostDownloaded,
		"genres":         genres,
		"totalSongs":     totalSongs,
		"totalPlays":     totalPlays,
		"totalDownloads": totalDownloads,
	}

	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		recent, err := h.engagementRepo.RecentPlaysByUser(userID, 5)
		if err != nil {
			logger.Warn("Failed to load recent plays", logger.ErrorField(err), logger.Int64("userId", userID))
		} else {
			payload["recentPlays"] = recent
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// DiscoverHandler lists all songs by upload date, newest first.
func (h *APIHandler) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("Failed to load songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// GenresHandler lists every genre.
func (h *APIHandler) GenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genreRepo.GetAllGenres()
	if err != nil {
		logger.Error("Failed to load genres", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

// GenreSongsHandler lists the songs in one genre.
func (h *APIHandler) GenreSongsHandler(w http.ResponseWriter, r *http.Request) {
	genreID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid genre ID")
		return
	}

	genre, err := h.genreRepo.GetGenreByID(genreID)
	if err != nil {
		logger.Error("Failed to load genre", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if genre == nil {
		writeError(w, http.StatusNotFound, "Genre not found")
		return
	}

	songs, err := h.songRepo.GetSongsByGenreID(genreID)
	if err != nil {
		logger.Error("Failed to load genre songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genre": genre, "songs": songs})
}

// LibraryHandler returns the user's liked songs and playlists.
func (h *APIHandler) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	liked, err := h.songRepo.GetLikedSongs(userID)
	if err != nil {
		logger.Error("Failed to load liked songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	playlists, err := h.playlistRepo.GetPlaylistsByUserID(userID)
	if err != nil {
		logger.Error("Failed to load playlists", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"likedSongs": liked,
		"playlists":  playlists,
	})
}

// PlaySongHandler is publicly accessible: it bumps the play counter,
// appends a play event and returns the song metadata with the new count.
func (h *APIHandler) PlaySongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
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

	plays, err := h.songRepo.IncrementPlays(songID)
	if err != nil {
		logger.Error("Failed to increment plays", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	play := &model.SongPlay{SongID: songID, IPAddress: clientIP(r)}
	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		play.UserID = &userID
	}
	if err := h.engagementRepo.RecordPlay(play); err != nil {
		logger.Error("Failed to record play", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.publishStats(r.Context(), songID, plays, song.Downloads)

	cover := "/static/images/default-cover.jpg"
	if song.CoverPath.Valid {
		cover = "/media/" + song.CoverPath.String
	}

	payload := map[string]interface{}{
		"id":       song.ID,
		"title":    song.Title,
		"artist":   song.ArtistName,
		"cover":    cover,
		"audio":    "/media/" + song.AudioPath,
		"duration": song.Duration,
		"plays":    plays,
	}
	if play.UserID != nil {
		liked, err := h.engagementRepo.IsLiked(*play.UserID, songID)
		if err != nil {
			logger.Error("Failed to check like", logger.ErrorField(err), logger.Int64("songId", songID))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		payload["liked"] = liked
	}

	writeJSON(w, http.StatusOK, payload)
}

// LikeSongHandler toggles the song in the user's liked collection and
// returns the resulting state.
func (h *APIHandler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songID, err := pathID(r, "id")
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

	liked, err := h.engagementRepo.ToggleLike(userID, songID)
	if err != nil {
		logger.Error("Failed to toggle like", logger.ErrorField(err),
			logger.Int64("userId", userID), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// DownloadSongHandler bumps the download counter, records the event and
// streams the audio object back as an attachment named
// "{title} - {artist}.{ext}" with the stored file's real extension.
func (h *APIHandler) DownloadSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songID, err := pathID(r, "id")
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

	// Stat before counting the download so a missing file is a 404, not a
	// phantom increment.
	info, err := statObject(r.Context(), song.AudioPath)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		logger.Error("Failed to stat audio object", logger.ErrorField(err), logger.String("key", song.AudioPath))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	object, err := openObject(r.Context(), song.AudioPath)
	if err != nil {
		logger.Error("Failed to open audio object", logger.ErrorField(err), logger.String("key", song.AudioPath))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer object.Close()

	downloads, err := h.songRepo.IncrementDownloads(songID)
	if err != nil {
		logger.Error("Failed to increment downloads", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := h.engagementRepo.RecordDownload(&model.SongDownload{
		SongID:    songID,
		UserID:    &userID,
		IPAddress: clientIP(r),
	}); err != nil {
		logger.Error("Failed to record download", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.publishStats(r.Context(), songID, song.Plays, downloads)

	contentType := audioContentTypes[song.AudioExt()]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", song.DownloadFilename()))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Download stream interrupted", logger.ErrorField(err), logger.Int64("songId", songID))
	}
}

// SearchHandler performs the substring search over song titles and artist
// names.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	songs := []*model.Song{}
	if query != "" {
		var err error
		songs, err = h.songRepo.SearchSongs(query)
		if err != nil {
			logger.Error("Search failed", logger.ErrorField(err), logger.String("query", query))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"query": query, "songs": songs})
}

// SongStatsHandler returns the current counters for a song, served from the
// Redis cache when warm.
func (h *APIHandler) SongStatsHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	if stats, ok, err := cache.GetSongStats(r.Context(), songID); err == nil && ok {
		writeJSON(w, http.StatusOK, stats)
		return
	} else if err != nil {
		logger.Warn("Stats cache read failed", logger.ErrorField(err), logger.Int64("songId", songID))
	}

	stats, err := h.songRepo.GetSongStats(songID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Song not found")
			return
		}
		logger.Error("Failed to load stats", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := cache.SetSongStats(r.Context(), songID, stats); err != nil {
		logger.Warn("Stats cache write failed", logger.ErrorField(err), logger.Int64("songId", songID))
	}
	writeJSON(w, http.StatusOK, stats)
}

// UploadSongHandler validates the multipart form, stores the audio and
// optional cover in object storage and creates the song owned by the
// requesting artist. New songs always start unapproved with zero counters.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	artist, ok := h.requireArtist(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxAudioSize + h.cfg.MaxCoverSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large")
		return
	}

	form := &upload.SongForm{Title: strings.TrimSpace(r.FormValue("title"))}
	form.GenreID, _ = strconv.ParseInt(r.FormValue("genre"), 10, 64)
	form.DurationMinutes, _ = strconv.Atoi(r.FormValue("duration_minutes"))
	form.DurationSeconds, _ = strconv.Atoi(r.FormValue("duration_seconds"))

	audioFile, audioHeader, err := r.FormFile("audio_file")
	if err == nil {
		defer audioFile.Close()
		form.Audio = &upload.FileMeta{
			Filename:    audioHeader.Filename,
			Size:        audioHeader.Size,
			ContentType: audioHeader.Header.Get("Content-Type"),
		}
	}

	coverFile, coverHeader, err := r.FormFile("cover_image")
	if err == nil {
		defer coverFile.Close()
		form.Cover = &upload.FileMeta{
			Filename:    coverHeader.Filename,
			Size:        coverHeader.Size,
			ContentType: coverHeader.Header.Get("Content-Type"),
		}
	}

	draft, fieldErrs := form.Validate()
	if fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": fieldErrs})
		return
	}

	genre, err := h.genreRepo.GetGenreByID(draft.GenreID)
	if err != nil {
		logger.Error("Failed to look up genre", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if genre == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []upload.FieldError{{Field: "genre", Message: "Genre not found."}},
		})
		return
	}

	audioExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(form.Audio.Filename), "."))
	if !upload.AllowedAudioExt(audioExt) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []upload.FieldError{{Field: "audio_file", Message: "Unsupported audio file extension."}},
		})
		return
	}

	audioKey := storage.AudioPrefix + uuid.NewString() + "." + audioExt
	if err := putObject(r.Context(), audioKey, audioFile, form.Audio.Size, form.Audio.ContentType); err != nil {
		logger.Error("Failed to store audio", logger.ErrorField(err), logger.String("key", audioKey))
		writeError(w, http.StatusInternalServerError, "Failed to store audio file")
		return
	}

	song := &model.Song{
		ArtistID:   artist.ID,
		GenreID:    draft.GenreID,
		Title:      draft.Title,
		AudioPath:  audioKey,
		Duration:   draft.Duration,
		Plays:      0,
		Downloads:  0,
		IsApproved: false,
	}

	var coverKey string
	if form.Cover != nil {
		coverExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(form.Cover.Filename), "."))
		coverKey = storage.CoverPrefix + uuid.NewString() + "." + coverExt
		if err := putObject(r.Context(), coverKey, coverFile, form.Cover.Size, form.Cover.ContentType); err != nil {
			logger.Error("Failed to store cover", logger.ErrorField(err), logger.String("key", coverKey))
			removeObject(r.Context(), audioKey)
			writeError(w, http.StatusInternalServerError, "Failed to store cover image")
			return
		}
		song.CoverPath.String = coverKey
		song.CoverPath.Valid = true
	}

	songID, err := h.songRepo.CreateSong(song)
	if err != nil {
		logger.Error("Failed to create song", logger.ErrorField(err))
		// The stored objects are orphaned on failure; clean up best-effort.
		removeObject(r.Context(), audioKey)
		if coverKey != "" {
			removeObject(r.Context(), coverKey)
		}
		writeError(w, http.StatusInternalServerError, "Failed to save song")
		return
	}

	logger.Info("Song uploaded",
		logger.Int64("songId", songID),
		logger.Int64("artistId", artist.ID),
		logger.String("title", draft.Title))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      songID,
		"message": "Your song has been uploaded successfully and is pending review!",
	})
}

// MyUploadsHandler lists the requesting artist's songs.
func (h *APIHandler) MyUploadsHandler(w http.ResponseWriter, r *http.Request) {
	artist, ok := h.requireArtist(w, r)
	if !ok {
		return
	}

	songs, err := h.songRepo.GetSongsByArtistID(artist.ID)
	if err != nil {
		logger.Error("Failed to load uploads", logger.ErrorField(err), logger.Int64("artistId", artist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// DeleteSongHandler removes one of the requesting artist's own uploads
// together with its stored audio and cover objects.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	artist, ok := h.requireArtist(w, r)
	if !ok {
		return
	}

	songID, err := pathID(r, "id")
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
	if song.ArtistID != artist.ID {
		writeAccessDenied(w, "You can only delete your own songs.")
		return
	}

	if err := h.songRepo.DeleteSong(songID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Song not found")
			return
		}
		logger.Error("Failed to delete song", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Object removal is best-effort; the database row is already gone.
	if err := removeObject(r.Context(), song.AudioPath); err != nil {
		logger.Warn("Failed to remove audio object", logger.ErrorField(err), logger.String("key", song.AudioPath))
	}
	if song.CoverPath.Valid {
		if err := removeObject(r.Context(), song.CoverPath.String); err != nil {
			logger.Warn("Failed to remove cover object", logger.ErrorField(err), logger.String("key", song.CoverPath.String))
		}
	}

	logger.Info("Song deleted",
		logger.Int64("songId", songID),
		logger.Int64("artistId", artist.ID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Song deleted."})
}

func (h *APIHandler) publishStats(ctx context.Context, songID, plays, downloads int64) {
	// Counter updates are best-effort fan-out; a cache or pub/sub failure
	// never fails the request.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := cache.PublishStatsUpdate(publishCtx, cache.StatsUpdate{
		SongID:    songID,
		Plays:     plays,
		Downloads: downloads,
	}); err != nil {
		logger.Warn("Failed to publish stats update", logger.ErrorField(err), logger.Int64("songId", songID))
	}
}
