package server

import (
	"net/http"
	"time"

	"tunehub/logger"
)

const analyticsWindowDays = 30

type dailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SongAnalyticsHandler returns the per-day play and download breakdown for
// one song over the last 30 days, plus lifetime totals. Only the artist who
// owns the song may see it.
func (h *APIHandler) SongAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
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
		writeAccessDenied(w, "You can only view analytics for your own songs.")
		return
	}

	since := time.Now().AddDate(0, 0, -analyticsWindowDays)

	plays, err := h.engagementRepo.PlaysSince(songID, since)
	if err != nil {
		logger.Error("Failed to load play events", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	downloads, err := h.engagementRepo.DownloadsSince(songID, since)
	if err != nil {
		logger.Error("Failed to load download events", logger.ErrorField(err), logger.Int64("songId", songID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	playsByDay := make(map[string]int, analyticsWindowDays)
	for _, p := range plays {
		playsByDay[p.PlayedAt.Format("2006-01-02")]++
	}
	downloadsByDay := make(map[string]int, analyticsWindowDays)
	for _, d := range downloads {
		downloadsByDay[d.DownloadedAt.Format("2006-01-02")]++
	}

	// Emit every day in the window, oldest first, so gaps show as zeros.
	dailyPlays := make([]dailyCount, 0, analyticsWindowDays)
	dailyDownloads := make([]dailyCount, 0, analyticsWindowDays)
	for i := analyticsWindowDays - 1; i >= 0; i-- {
		day := time.Now().AddDate(0, 0, -i).Format("2006-01-02")
		dailyPlays = append(dailyPlays, dailyCount{Date: day, Count: playsByDay[day]})
		dailyDownloads = append(dailyDownloads, dailyCount{Date: day, Count: downloadsByDay[day]})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"song": map[string]interface{}{
			"id":     song.ID,
			"title":  song.Title,
			"artist": song.ArtistName,
		},
		"totalPlays":     song.Plays,
		"totalDownloads": song.Downloads,
		"dailyPlays":     dailyPlays,
		"dailyDownloads": dailyDownloads,
	})
}

// TopSongsHandler ranks approved songs by plays and by downloads, ten each.
func (h *APIHandler) TopSongsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	byPlays, err := h.songRepo.TopByPlays(10)
	if err != nil {
		logger.Error("Failed to rank by plays", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	byDownloads, err := h.songRepo.TopByDownloads(10)
	if err != nil {
		logger.Error("Failed to rank by downloads", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topByPlays":     byPlays,
		"topByDownloads": byDownloads,
	})
}

// ArtistDashboardHandler summarizes the requesting artist's catalog: song
// and counter totals, follower count and plays over the last week.
func (h *APIHandler) ArtistDashboardHandler(w http.ResponseWriter, r *http.Request) {
	artist, ok := h.requireArtist(w, r)
	if !ok {
		return
	}

	stats, err := h.artistRepo.GetArtistStats(artist.ID)
	if err != nil {
		logger.Error("Failed to load artist stats", logger.ErrorField(err), logger.Int64("artistId", artist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	followers, err := h.engagementRepo.FollowerCount(artist.ID)
	if err != nil {
		logger.Error("Failed to count followers", logger.ErrorField(err), logger.Int64("artistId", artist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	weekPlays, err := h.engagementRepo.CountArtistPlaysSince(artist.ID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		logger.Error("Failed to count recent plays", logger.ErrorField(err), logger.Int64("artistId", artist.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artist":        artist,
		"stats":         stats,
		"followerCount": followers,
		"playsLastWeek": weekPlays,
	})
}
