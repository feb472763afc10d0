package repository

import (
	"database/sql"
	"fmt"

	"tunehub/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetSongByID(id int64) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	GetSongsByArtistID(artistID int64) ([]*model.Song, error)
	GetSongsByGenreID(genreID int64) ([]*model.Song, error)
	GetLikedSongs(userID int64) ([]*model.Song, error)
	// SearchSongs matches the query case-insensitively against song
	// titles (approved songs only) and artist names (no approval
	// filter). The asymmetry is deliberate, see DESIGN.md.
	SearchSongs(query string) ([]*model.Song, error)
	// TopByPlays and TopByDownloads are restricted to approved songs.
	TopByPlays(limit int) ([]*model.Song, error)
	TopByDownloads(limit int) ([]*model.Song, error)
	// MostPlayed and MostDownloaded rank over all songs regardless of
	// approval and feed the landing page.
	MostPlayed(limit int) ([]*model.Song, error)
	MostDownloaded(limit int) ([]*model.Song, error)
	// IncrementPlays and IncrementDownloads are atomic at the storage
	// layer; concurrent requests never lose updates. Both return the
	// counter value after the increment.
	IncrementPlays(id int64) (int64, error)
	IncrementDownloads(id int64) (int64, error)
	GetSongStats(id int64) (*model.SongStats, error)
	LibraryTotals() (songs, plays, downloads int64, err error)
	DeleteSong(id int64) error
}

type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

const songSelect = `SELECT s.id, s.artist_id, s.genre_id, s.title, s.audio_path, s.cover_path,
	s.duration, s.plays, s.downloads, s.is_approved, s.is_featured, s.uploaded_at, s.updated_at,
	a.name, g.name
	FROM songs s
	JOIN artists a ON a.id = s.artist_id
	JOIN genres g ON g.id = s.genre_id`

func scanSong(scanner interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	err := scanner.Scan(&song.ID, &song.ArtistID, &song.GenreID, &song.Title,
		&song.AudioPath, &song.CoverPath, &song.Duration, &song.Plays, &song.Downloads,
		&song.IsApproved, &song.IsFeatured, &song.UploadedAt, &song.UpdatedAt,
		&song.ArtistName, &song.GenreName)
	if err != nil {
		return nil, err
	}
	return song, nil
}

func (r *mysqlSongRepository) querySongs(query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// CreateSong inserts a new song owned by an artist.
func (r *mysqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	res, err := r.db.Exec(`INSERT INTO songs
		(artist_id, genre_id, title, audio_path, cover_path, duration, plays, downloads, is_approved, is_featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ArtistID, song.GenreID, song.Title, song.AudioPath, song.CoverPath,
		song.Duration, song.Plays, song.Downloads, song.IsApproved, song.IsFeatured)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song with its artist and genre names joined in.
func (r *mysqlSongRepository) GetSongByID(id int64) (*model.Song, error) {
	row := r.db.QueryRow(songSelect+" WHERE s.id = ?", id)
	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song %d: %w", id, err)
	}
	return song, nil
}

// GetAllSongs lists every song, newest upload first.
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	return r.querySongs(songSelect + " ORDER BY s.uploaded_at DESC")
}

// GetSongsByArtistID lists an artist's songs, newest upload first.
func (r *mysqlSongRepository) GetSongsByArtistID(artistID int64) ([]*model.Song, error) {
	return r.querySongs(songSelect+" WHERE s.artist_id = ? ORDER BY s.uploaded_at DESC", artistID)
}

// GetSongsByGenreID lists the songs in a genre.
func (r *mysqlSongRepository) GetSongsByGenreID(genreID int64) ([]*model.Song, error) {
	return r.querySongs(songSelect+" WHERE s.genre_id = ? ORDER BY s.uploaded_at DESC", genreID)
}

// GetLikedSongs lists the songs in a user's liked collection, most recently
// liked first.
func (r *mysqlSongRepository) GetLikedSongs(userID int64) ([]*model.Song, error) {
	return r.querySongs(songSelect+`
		JOIN likes l ON l.song_id = s.id
		WHERE l.user_id = ?
		ORDER BY l.liked_at DESC`, userID)
}

// SearchSongs performs the case-insensitive substring search.
func (r *mysqlSongRepository) SearchSongs(query string) ([]*model.Song, error) {
	pattern := "%" + query + "%"
	return r.querySongs(songSelect+`
		WHERE (LOWER(s.title) LIKE LOWER(?) AND s.is_approved = TRUE)
		   OR LOWER(a.name) LIKE LOWER(?)
		ORDER BY s.uploaded_at DESC`, pattern, pattern)
}

// TopByPlays returns the approved songs with the highest play counts.
func (r *mysqlSongRepository) TopByPlays(limit int) ([]*model.Song, error) {
	return r.querySongs(songSelect+" WHERE s.is_approved = TRUE ORDER BY s.plays DESC LIMIT ?", limit)
}

// TopByDownloads returns the approved songs with the highest download counts.
func (r *mysqlSongRepository) TopByDownloads(limit int) ([]*model.Song, error) {
	return r.querySongs(songSelect+" WHERE s.is_approved = TRUE ORDER BY s.downloads DESC LIMIT ?", limit)
}

// MostPlayed ranks all songs by play count.
func (r *mysqlSongRepository) MostPlayed(limit int) ([]*model.Song, error) {
	return r.querySongs(songSelect+" ORDER BY s.plays DESC LIMIT ?", limit)
}

// MostDownloaded ranks all songs by download count.
func (r *mysqlSongRepository) MostDownloaded(limit int) ([]*model.Song, error) {
	return r.querySongs(songSelect+" ORDER BY s.downloads DESC LIMIT ?", limit)
}

// IncrementPlays bumps the play counter atomically and returns the new value.
func (r *mysqlSongRepository) IncrementPlays(id int64) (int64, error) {
	return r.increment(id, "plays")
}

// IncrementDownloads bumps the download counter atomically and returns the
// new value.
func (r *mysqlSongRepository) IncrementDownloads(id int64) (int64, error) {
	return r.increment(id, "downloads")
}

func (r *mysqlSongRepository) increment(id int64, column string) (int64, error) {
	// column is one of two trusted literals, never user input.
	res, err := r.db.Exec("UPDATE songs SET "+column+" = "+column+" + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s for song %d: %w", column, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	var count int64
	if err := r.db.QueryRow("SELECT "+column+" FROM songs WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read %s for song %d: %w", column, id, err)
	}
	return count, nil
}

// GetSongStats reads the current counters for a song.
func (r *mysqlSongRepository) GetSongStats(id int64) (*model.SongStats, error) {
	stats := &model.SongStats{}
	err := r.db.QueryRow("SELECT plays, downloads FROM songs WHERE id = ?", id).
		Scan(&stats.Plays, &stats.Downloads)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read stats for song %d: %w", id, err)
	}
	return stats, nil
}

// LibraryTotals reports the aggregate song, play and download counts for the
// landing page.
func (r *mysqlSongRepository) LibraryTotals() (songs, plays, downloads int64, err error) {
	err = r.db.QueryRow("SELECT COUNT(id), COALESCE(SUM(plays), 0), COALESCE(SUM(downloads), 0) FROM songs").
		Scan(&songs, &plays, &downloads)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to compute library totals: %w", err)
	}
	return songs, plays, downloads, nil
}

// DeleteSong removes a song; event rows cascade at the database level.
func (r *mysqlSongRepository) DeleteSong(id int64) error {
	res, err := r.db.Exec("DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
