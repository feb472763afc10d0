package server

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"tunehub/config"
	"tunehub/core/auth"
	"tunehub/model"
	"tunehub/repository"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
)

func init() {
	auth.InitJWT("test-secret-key-at-least-32-bytes-long", time.Hour)
}

// fakeStore is an in-memory backing store shared by the fake repositories,
// so one handler test sees consistent state across all of them.
type fakeStore struct {
	users     map[int64]*model.User
	profiles  map[int64]*model.UserProfile // keyed by user ID
	artists   map[int64]*model.Artist
	genres    map[int64]*model.Genre
	songs     map[int64]*model.Song
	playlists map[int64]*model.Playlist
	members   map[int64][]int64 // playlist ID -> song IDs in order
	plays     []*model.SongPlay
	downloads []*model.SongDownload
	likes     map[[2]int64]time.Time // (user, song)
	follows   map[[2]int64]bool      // (follower, artist)
	nextID    int64

	createSongErr error // forced failure for CreateSong
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*model.User),
		profiles:  make(map[int64]*model.UserProfile),
		artists:   make(map[int64]*model.Artist),
		genres:    make(map[int64]*model.Genre),
		songs:     make(map[int64]*model.Song),
		playlists: make(map[int64]*model.Playlist),
		members:   make(map[int64][]int64),
		likes:     make(map[[2]int64]time.Time),
		follows:   make(map[[2]int64]bool),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(username string, userType string) *model.User {
	user := &model.User{ID: s.id(), Username: username, Email: username + "@example.com"}
	s.users[user.ID] = user
	s.profiles[user.ID] = &model.UserProfile{ID: user.ID, UserID: user.ID, UserType: userType}
	return user
}

func (s *fakeStore) addArtist(userID int64, name string) *model.Artist {
	artist := &model.Artist{ID: s.id(), UserID: userID, Name: name}
	s.artists[artist.ID] = artist
	return artist
}

func (s *fakeStore) addSong(artistID int64, title string, approved bool) *model.Song {
	song := &model.Song{
		ID:         s.id(),
		ArtistID:   artistID,
		GenreID:    1,
		Title:      title,
		AudioPath:  "songs/" + strings.ToLower(title) + ".mp3",
		Duration:   180,
		IsApproved: approved,
		UploadedAt: time.Now(),
	}
	if artist, ok := s.artists[artistID]; ok {
		song.ArtistName = artist.Name
	}
	s.songs[song.ID] = song
	return song
}

// --- fake repositories ---

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) CreateUser(user *model.User, artist *repository.NewArtist) (int64, error) {
	for _, u := range r.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	user.ID = r.s.id()
	r.s.users[user.ID] = user
	userType := model.UserTypeListener
	if artist != nil {
		userType = model.UserTypeArtist
		a := r.s.addArtist(user.ID, artist.Name)
		if artist.GenreID > 0 {
			a.GenreID.Int64 = artist.GenreID
			a.GenreID.Valid = true
		}
	}
	r.s.profiles[user.ID] = &model.UserProfile{ID: user.ID, UserID: user.ID, UserType: userType}
	return user.ID, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	return r.s.users[id], nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UsernameExists(username string) (bool, error) {
	u, _ := r.GetUserByUsername(username)
	return u != nil, nil
}

func (r *fakeUserRepo) EmailExists(email string) (bool, error) {
	u, _ := r.GetUserByEmail(email)
	return u != nil, nil
}

func (r *fakeUserRepo) GetProfileByUserID(userID int64) (*model.UserProfile, error) {
	if p, ok := r.s.profiles[userID]; ok {
		return p, nil
	}
	p := &model.UserProfile{ID: r.s.id(), UserID: userID, UserType: model.UserTypeListener}
	r.s.profiles[userID] = p
	return p, nil
}

func (r *fakeUserRepo) SetFavoriteGenres(profileID int64, genreIDs []int64) error { return nil }

func (r *fakeUserRepo) GetFavoriteGenres(profileID int64) ([]*model.Genre, error) {
	return nil, nil
}

type fakeArtistRepo struct{ s *fakeStore }

func (r *fakeArtistRepo) GetArtistByID(id int64) (*model.Artist, error) {
	return r.s.artists[id], nil
}

func (r *fakeArtistRepo) GetArtistByUserID(userID int64) (*model.Artist, error) {
	for _, a := range r.s.artists {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeArtistRepo) GetArtistStats(artistID int64) (*model.ArtistStats, error) {
	stats := &model.ArtistStats{}
	for _, song := range r.s.songs {
		if song.ArtistID == artistID {
			stats.TotalSongs++
			stats.TotalPlays += song.Plays
			stats.TotalDownloads += song.Downloads
		}
	}
	return stats, nil
}

func (r *fakeArtistRepo) UpdateArtist(artist *model.Artist) error {
	r.s.artists[artist.ID] = artist
	return nil
}

type fakeGenreRepo struct{ s *fakeStore }

func (r *fakeGenreRepo) GetAllGenres() ([]*model.Genre, error) {
	genres := make([]*model.Genre, 0, len(r.s.genres))
	for _, g := range r.s.genres {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	return genres, nil
}

func (r *fakeGenreRepo) GetGenreByID(id int64) (*model.Genre, error) {
	return r.s.genres[id], nil
}

func (r *fakeGenreRepo) GetGenresWithCounts() ([]*model.GenreWithCount, error) {
	return nil, nil
}

type fakeSongRepo struct{ s *fakeStore }

func (r *fakeSongRepo) CreateSong(song *model.Song) (int64, error) {
	if r.s.createSongErr != nil {
		return 0, r.s.createSongErr
	}
	song.ID = r.s.id()
	r.s.songs[song.ID] = song
	return song.ID, nil
}

func (r *fakeSongRepo) GetSongByID(id int64) (*model.Song, error) {
	return r.s.songs[id], nil
}

func (r *fakeSongRepo) all() []*model.Song {
	songs := make([]*model.Song, 0, len(r.s.songs))
	for _, song := range r.s.songs {
		songs = append(songs, song)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs
}

func (r *fakeSongRepo) GetAllSongs() ([]*model.Song, error) { return r.all(), nil }

func (r *fakeSongRepo) GetSongsByArtistID(artistID int64) ([]*model.Song, error) {
	var songs []*model.Song
	for _, song := range r.all() {
		if song.ArtistID == artistID {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (r *fakeSongRepo) GetSongsByGenreID(genreID int64) ([]*model.Song, error) {
	var songs []*model.Song
	for _, song := range r.all() {
		if song.GenreID == genreID {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (r *fakeSongRepo) GetLikedSongs(userID int64) ([]*model.Song, error) {
	var songs []*model.Song
	for _, song := range r.all() {
		if _, ok := r.s.likes[[2]int64{userID, song.ID}]; ok {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (r *fakeSongRepo) SearchSongs(query string) ([]*model.Song, error) {
	query = strings.ToLower(query)
	var songs []*model.Song
	for _, song := range r.all() {
		titleHit := strings.Contains(strings.ToLower(song.Title), query) && song.IsApproved
		artistHit := strings.Contains(strings.ToLower(song.ArtistName), query)
		if titleHit || artistHit {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (r *fakeSongRepo) topBy(limit int, value func(*model.Song) int64) []*model.Song {
	var songs []*model.Song
	for _, song := range r.all() {
		if song.IsApproved {
			songs = append(songs, song)
		}
	}
	sort.Slice(songs, func(i, j int) bool { return value(songs[i]) > value(songs[j]) })
	if len(songs) > limit {
		songs = songs[:limit]
	}
	return songs
}

func (r *fakeSongRepo) TopByPlays(limit int) ([]*model.Song, error) {
	return r.topBy(limit, func(s *model.Song) int64 { return s.Plays }), nil
}

func (r *fakeSongRepo) TopByDownloads(limit int) ([]*model.Song, error) {
	return r.topBy(limit, func(s *model.Song) int64 { return s.Downloads }), nil
}

func (r *fakeSongRepo) MostPlayed(limit int) ([]*model.Song, error) {
	songs := r.all()
	sort.Slice(songs, func(i, j int) bool { return songs[i].Plays > songs[j].Plays })
	if len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

func (r *fakeSongRepo) MostDownloaded(limit int) ([]*model.Song, error) {
	songs := r.all()
	sort.Slice(songs, func(i, j int) bool { return songs[i].Downloads > songs[j].Downloads })
	if len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

func (r *fakeSongRepo) IncrementPlays(id int64) (int64, error) {
	song, ok := r.s.songs[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	song.Plays++
	return song.Plays, nil
}

func (r *fakeSongRepo) IncrementDownloads(id int64) (int64, error) {
	song, ok := r.s.songs[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	song.Downloads++
	return song.Downloads, nil
}

func (r *fakeSongRepo) GetSongStats(id int64) (*model.SongStats, error) {
	song, ok := r.s.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.SongStats{Plays: song.Plays, Downloads: song.Downloads}, nil
}

func (r *fakeSongRepo) LibraryTotals() (songs, plays, downloads int64, err error) {
	for _, song := range r.s.songs {
		songs++
		plays += song.Plays
		downloads += song.Downloads
	}
	return songs, plays, downloads, nil
}

func (r *fakeSongRepo) DeleteSong(id int64) error {
	delete(r.s.songs, id)
	return nil
}

type fakePlaylistRepo struct{ s *fakeStore }

func (r *fakePlaylistRepo) CreatePlaylist(playlist *model.Playlist) (int64, error) {
	playlist.ID = r.s.id()
	r.s.playlists[playlist.ID] = playlist
	return playlist.ID, nil
}

func (r *fakePlaylistRepo) GetPlaylistByID(id int64) (*model.Playlist, error) {
	playlist := r.s.playlists[id]
	if playlist != nil {
		playlist.SongCount = int64(len(r.s.members[id]))
	}
	return playlist, nil
}

func (r *fakePlaylistRepo) GetPlaylistsByUserID(userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	for _, p := range r.s.playlists {
		if p.UserID == userID {
			playlists = append(playlists, p)
		}
	}
	return playlists, nil
}

func (r *fakePlaylistRepo) DeletePlaylist(id int64) error {
	if _, ok := r.s.playlists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.playlists, id)
	delete(r.s.members, id)
	return nil
}

func (r *fakePlaylistRepo) AddSong(playlistID, songID int64) error {
	for _, existing := range r.s.members[playlistID] {
		if existing == songID {
			return nil
		}
	}
	r.s.members[playlistID] = append(r.s.members[playlistID], songID)
	return nil
}

func (r *fakePlaylistRepo) RemoveSong(playlistID, songID int64) error {
	members := r.s.members[playlistID]
	for i, existing := range members {
		if existing == songID {
			r.s.members[playlistID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakePlaylistRepo) GetPlaylistSongIDs(playlistID int64) ([]int64, error) {
	return r.s.members[playlistID], nil
}

type fakeEngagementRepo struct{ s *fakeStore }

func (r *fakeEngagementRepo) RecordPlay(play *model.SongPlay) error {
	play.PlayedAt = time.Now()
	r.s.plays = append(r.s.plays, play)
	return nil
}

func (r *fakeEngagementRepo) RecordDownload(download *model.SongDownload) error {
	download.DownloadedAt = time.Now()
	r.s.downloads = append(r.s.downloads, download)
	return nil
}

func (r *fakeEngagementRepo) ToggleLike(userID, songID int64) (bool, error) {
	key := [2]int64{userID, songID}
	if _, ok := r.s.likes[key]; ok {
		delete(r.s.likes, key)
		return false, nil
	}
	r.s.likes[key] = time.Now()
	return true, nil
}

func (r *fakeEngagementRepo) IsLiked(userID, songID int64) (bool, error) {
	_, ok := r.s.likes[[2]int64{userID, songID}]
	return ok, nil
}

func (r *fakeEngagementRepo) ToggleFollow(followerID, artistID int64) (bool, error) {
	key := [2]int64{followerID, artistID}
	if r.s.follows[key] {
		delete(r.s.follows, key)
		return false, nil
	}
	r.s.follows[key] = true
	return true, nil
}

func (r *fakeEngagementRepo) IsFollowing(followerID, artistID int64) (bool, error) {
	return r.s.follows[[2]int64{followerID, artistID}], nil
}

func (r *fakeEngagementRepo) FollowerCount(artistID int64) (int64, error) {
	var count int64
	for key := range r.s.follows {
		if key[1] == artistID {
			count++
		}
	}
	return count, nil
}

func (r *fakeEngagementRepo) PlaysSince(songID int64, since time.Time) ([]*model.SongPlay, error) {
	var plays []*model.SongPlay
	for _, p := range r.s.plays {
		if p.SongID == songID && !p.PlayedAt.Before(since) {
			plays = append(plays, p)
		}
	}
	return plays, nil
}

func (r *fakeEngagementRepo) DownloadsSince(songID int64, since time.Time) ([]*model.SongDownload, error) {
	var downloads []*model.SongDownload
	for _, d := range r.s.downloads {
		if d.SongID == songID && !d.DownloadedAt.Before(since) {
			downloads = append(downloads, d)
		}
	}
	return downloads, nil
}

func (r *fakeEngagementRepo) CountArtistPlaysSince(artistID int64, since time.Time) (int64, error) {
	var count int64
	for _, p := range r.s.plays {
		song, ok := r.s.songs[p.SongID]
		if ok && song.ArtistID == artistID && !p.PlayedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeEngagementRepo) RecentPlaysByUser(userID int64, limit int) ([]*model.SongPlay, error) {
	var plays []*model.SongPlay
	for _, p := range r.s.plays {
		if p.UserID != nil && *p.UserID == userID {
			plays = append(plays, p)
		}
	}
	if len(plays) > limit {
		plays = plays[len(plays)-limit:]
	}
	return plays, nil
}

// stubStorage records object store traffic for one test.
type stubStorage struct {
	objects map[string]string // key -> content
	put     []string
	removed []string
}

// stubObjectStore swaps the storage seams for an in-memory recorder and
// restores them when the test finishes.
func stubObjectStore(t *testing.T) *stubStorage {
	t.Helper()
	stub := &stubStorage{objects: make(map[string]string)}
	origPut, origRemove, origStat, origOpen := putObject, removeObject, statObject, openObject

	putObject = func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
		data, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		stub.objects[key] = string(data)
		stub.put = append(stub.put, key)
		return nil
	}
	removeObject = func(ctx context.Context, key string) error {
		delete(stub.objects, key)
		stub.removed = append(stub.removed, key)
		return nil
	}
	statObject = func(ctx context.Context, key string) (minio.ObjectInfo, error) {
		content, ok := stub.objects[key]
		if !ok {
			return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
		}
		return minio.ObjectInfo{Key: key, Size: int64(len(content))}, nil
	}
	openObject = func(ctx context.Context, key string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(stub.objects[key])), nil
	}

	t.Cleanup(func() {
		putObject, removeObject, statObject, openObject = origPut, origRemove, origStat, origOpen
	})
	return stub
}

// newTestHandler wires an APIHandler onto a fresh in-memory store.
func newTestHandler() (*APIHandler, *fakeStore) {
	store := newFakeStore()
	handler := NewAPIHandler(
		&fakeUserRepo{s: store},
		&fakeArtistRepo{s: store},
		&fakeGenreRepo{s: store},
		&fakeSongRepo{s: store},
		&fakePlaylistRepo{s: store},
		&fakeEngagementRepo{s: store},
		&config.Config{MaxAudioSize: 50 << 20, MaxCoverSize: 10 << 20},
	)
	return handler, store
}

// asUser attaches an authenticated identity the way AuthMiddleware does.
func asUser(r *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(r.Context(), ctxUserID, userID)
	return r.WithContext(ctx)
}

// withVars attaches mux path variables to the request.
func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func idVar(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
