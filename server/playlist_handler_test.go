package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"tunehub/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlaylistRequiresName(t *testing.T) {
	handler, store := newTestHandler()
	user := store.addUser("xena", model.UserTypeListener)

	body, _ := json.Marshal(CreatePlaylistRequest{Name: "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/playlists", bytes.NewReader(body))
	req = asUser(req, user.ID)
	rec := httptest.NewRecorder()
	handler.CreatePlaylistHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.playlists)
}

func TestPlaylistLifecycle(t *testing.T) {
	handler, store := newTestHandler()
	user := store.addUser("yara", model.UserTypeListener)
	owner := store.addUser("zed", model.UserTypeArtist)
	artist := store.addArtist(owner.ID, "Zed")
	song := store.addSong(artist.ID, "Loop", true)

	body, _ := json.Marshal(CreatePlaylistRequest{Name: "Morning", IsPublic: false})
	req := httptest.NewRequest(http.MethodPost, "/api/playlists", bytes.NewReader(body))
	req = asUser(req, user.ID)
	rec := httptest.NewRecorder()
	handler.CreatePlaylistHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Playlist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Morning", created.Name)
	assert.Equal(t, user.ID, created.UserID)

	vars := map[string]string{
		"id":     strconv.FormatInt(created.ID, 10),
		"songId": strconv.FormatInt(song.ID, 10),
	}

	// Add the same song twice: second add is a no-op, not a duplicate.
	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodPost, "/api/playlists/1/songs/1", nil)
		req = withVars(asUser(req, user.ID), vars)
		rec = httptest.NewRecorder()
		handler.AddPlaylistSongHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Len(t, store.members[created.ID], 1)

	req = httptest.NewRequest(http.MethodGet, "/api/playlists/1", nil)
	req = withVars(asUser(req, user.ID), idVar(created.ID))
	rec = httptest.NewRecorder()
	handler.PlaylistDetailHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Playlist model.Playlist `json:"playlist"`
		Songs    []*model.Song  `json:"songs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Songs, 1)
	assert.Equal(t, song.ID, detail.Songs[0].ID)

	req = httptest.NewRequest(http.MethodDelete, "/api/playlists/1/songs/1", nil)
	req = withVars(asUser(req, user.ID), vars)
	rec = httptest.NewRecorder()
	handler.RemovePlaylistSongHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.members[created.ID])

	req = httptest.NewRequest(http.MethodDelete, "/api/playlists/1", nil)
	req = withVars(asUser(req, user.ID), idVar(created.ID))
	rec = httptest.NewRecorder()
	handler.DeletePlaylistHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.playlists)
}

func TestPlaylistOwnershipEnforced(t *testing.T) {
	handler, store := newTestHandler()
	owner := store.addUser("ann", model.UserTypeListener)
	intruder := store.addUser("bob", model.UserTypeListener)

	playlist := &model.Playlist{ID: store.id(), UserID: owner.ID, Name: "Private", IsPublic: false}
	store.playlists[playlist.ID] = playlist

	// A private playlist is invisible to other users.
	req := httptest.NewRequest(http.MethodGet, "/api/playlists/1", nil)
	req = withVars(asUser(req, intruder.ID), idVar(playlist.ID))
	rec := httptest.NewRecorder()
	handler.PlaylistDetailHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// And other users cannot delete it.
	req = httptest.NewRequest(http.MethodDelete, "/api/playlists/1", nil)
	req = withVars(asUser(req, intruder.ID), idVar(playlist.ID))
	rec = httptest.NewRecorder()
	handler.DeletePlaylistHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, store.playlists, 1)
}

func TestPublicPlaylistVisibleToOthers(t *testing.T) {
	handler, store := newTestHandler()
	owner := store.addUser("cleo", model.UserTypeListener)
	viewer := store.addUser("drew", model.UserTypeListener)

	playlist := &model.Playlist{ID: store.id(), UserID: owner.ID, Name: "Shared", IsPublic: true}
	store.playlists[playlist.ID] = playlist

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/1", nil)
	req = withVars(asUser(req, viewer.ID), idVar(playlist.ID))
	rec := httptest.NewRecorder()
	handler.PlaylistDetailHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
