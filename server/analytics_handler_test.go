package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tunehub/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSongAnalyticsOwnerOnly(t *testing.T) {
	handler, store := newTestHandler()
	owner := store.addUser("paula", model.UserTypeArtist)
	ownerArtist := store.addArtist(owner.ID, "Paula")
	song := store.addSong(ownerArtist.ID, "Orbit", true)

	rival := store.addUser("quinn", model.UserTypeArtist)
	store.addArtist(rival.ID, "Quinn")

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/song/1", nil)
	req = withVars(asUser(req, rival.ID), idVar(song.ID))
	rec := httptest.NewRecorder()
	handler.SongAnalyticsHandler(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/discover/", resp.Redirect)
}

func TestSongAnalyticsListenerDenied(t *testing.T) {
	handler, store := newTestHandler()
	owner := store.addUser("rosa", model.UserTypeArtist)
	artist := store.addArtist(owner.ID, "Rosa")
	song := store.addSong(artist.ID, "Drift", true)
	listener := store.addUser("sam", model.UserTypeListener)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/song/1", nil)
	req = withVars(asUser(req, listener.ID), idVar(song.ID))
	rec := httptest.NewRecorder()
	handler.SongAnalyticsHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSongAnalyticsDailyWindow(t *testing.T) {
	handler, store := newTestHandler()
	owner := store.addUser("tess", model.UserTypeArtist)
	artist := store.addArtist(owner.ID, "Tess")
	song := store.addSong(artist.ID, "Glass", true)
	song.Plays = 12
	song.Downloads = 4

	now := time.Now()
	store.plays = append(store.plays,
		&model.SongPlay{SongID: song.ID, PlayedAt: now},
		&model.SongPlay{SongID: song.ID, PlayedAt: now.AddDate(0, 0, -1)},
		&model.SongPlay{SongID: song.ID, PlayedAt: now.AddDate(0, 0, -60)}, // outside the window
	)
	store.downloads = append(store.downloads,
		&model.SongDownload{SongID: song.ID, DownloadedAt: now},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/song/1", nil)
	req = withVars(asUser(req, owner.ID), idVar(song.ID))
	rec := httptest.NewRecorder()
	handler.SongAnalyticsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalPlays     int64        `json:"totalPlays"`
		TotalDownloads int64        `json:"totalDownloads"`
		DailyPlays     []dailyCount `json:"dailyPlays"`
		DailyDownloads []dailyCount `json:"dailyDownloads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.TotalPlays)
	assert.Equal(t, int64(4), resp.TotalDownloads)
	require.Len(t, resp.DailyPlays, analyticsWindowDays)
	require.Len(t, resp.DailyDownloads, analyticsWindowDays)

	var windowPlays, windowDownloads int
	for _, day := range resp.DailyPlays {
		windowPlays += day.Count
	}
	for _, day := range resp.DailyDownloads {
		windowDownloads += day.Count
	}
	assert.Equal(t, 2, windowPlays)
	assert.Equal(t, 1, windowDownloads)

	today := now.Format("2006-01-02")
	assert.Equal(t, today, resp.DailyPlays[len(resp.DailyPlays)-1].Date)
	assert.Equal(t, 1, resp.DailyPlays[len(resp.DailyPlays)-1].Count)
}

func TestTopSongsApprovedOnly(t *testing.T) {
	handler, store := newTestHandler()
	user := store.addUser("uma", model.UserTypeArtist)
	artist := store.addArtist(user.ID, "Uma")

	hidden := store.addSong(artist.ID, "Hidden", false)
	hidden.Plays = 1000
	visible := store.addSong(artist.ID, "Visible", true)
	visible.Plays = 5

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/top-songs", nil)
	req = asUser(req, user.ID)
	rec := httptest.NewRecorder()
	handler.TopSongsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		TopByPlays []*model.Song `json:"topByPlays"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.TopByPlays, 1)
	assert.Equal(t, visible.ID, resp.TopByPlays[0].ID)
}

func TestArtistDashboard(t *testing.T) {
	handler, store := newTestHandler()
	user := store.addUser("vera", model.UserTypeArtist)
	artist := store.addArtist(user.ID, "Vera")
	song := store.addSong(artist.ID, "Pulse", true)
	song.Plays = 9
	song.Downloads = 2

	fan := store.addUser("wes", model.UserTypeListener)
	store.follows[[2]int64{fan.ID, artist.ID}] = true
	store.plays = append(store.plays, &model.SongPlay{SongID: song.ID, PlayedAt: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/artist/dashboard", nil)
	req = asUser(req, user.ID)
	rec := httptest.NewRecorder()
	handler.ArtistDashboardHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Stats         model.ArtistStats `json:"stats"`
		FollowerCount int64             `json:"followerCount"`
		PlaysLastWeek int64             `json:"playsLastWeek"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Stats.TotalSongs)
	assert.Equal(t, int64(9), resp.Stats.TotalPlays)
	assert.Equal(t, int64(1), resp.FollowerCount)
	assert.Equal(t, int64(1), resp.PlaysLastWeek)
}
