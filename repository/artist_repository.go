package repository

import (
	"database/sql"
	"fmt"

	"tunehub/model"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	GetArtistByID(id int64) (*model.Artist, error)
	GetArtistByUserID(userID int64) (*model.Artist, error)
	// GetArtistStats computes song/play/download totals on read by
	// aggregating over the artist's songs.
	GetArtistStats(artistID int64) (*model.ArtistStats, error)
	UpdateArtist(artist *model.Artist) error
}

type mysqlArtistRepository struct {
	db *sql.DB
}

// NewMySQLArtistRepository creates a new mysqlArtistRepository.
func NewMySQLArtistRepository(db *sql.DB) ArtistRepository {
	return &mysqlArtistRepository{db: db}
}

const artistColumns = "id, user_id, name, bio, image_path, genre_id, website, is_verified, created_at, updated_at"

func scanArtist(row *sql.Row) (*model.Artist, error) {
	artist := &model.Artist{}
	err := row.Scan(&artist.ID, &artist.UserID, &artist.Name, &artist.Bio,
		&artist.ImagePath, &artist.GenreID, &artist.Website, &artist.IsVerified,
		&artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist row: %w", err)
	}
	return artist, nil
}

// GetArtistByID retrieves an artist by ID.
func (r *mysqlArtistRepository) GetArtistByID(id int64) (*model.Artist, error) {
	row := r.db.QueryRow("SELECT "+artistColumns+" FROM artists WHERE id = ?", id)
	return scanArtist(row)
}

// GetArtistByUserID retrieves the artist record owned by a user.
func (r *mysqlArtistRepository) GetArtistByUserID(userID int64) (*model.Artist, error) {
	row := r.db.QueryRow("SELECT "+artistColumns+" FROM artists WHERE user_id = ?", userID)
	return scanArtist(row)
}

// GetArtistStats sums plays and downloads over the artist's songs.
func (r *mysqlArtistRepository) GetArtistStats(artistID int64) (*model.ArtistStats, error) {
	stats := &model.ArtistStats{}
	err := r.db.QueryRow(`SELECT COUNT(id), COALESCE(SUM(plays), 0), COALESCE(SUM(downloads), 0)
		FROM songs WHERE artist_id = ?`, artistID).
		Scan(&stats.TotalSongs, &stats.TotalPlays, &stats.TotalDownloads)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for artist %d: %w", artistID, err)
	}
	return stats, nil
}

// UpdateArtist updates the artist's editable fields.
func (r *mysqlArtistRepository) UpdateArtist(artist *model.Artist) error {
	_, err := r.db.Exec(`UPDATE artists
		SET name = ?, bio = ?, image_path = ?, genre_id = ?, website = ?, updated_at = NOW()
		WHERE id = ?`,
		artist.Name, artist.Bio, artist.ImagePath, artist.GenreID, artist.Website, artist.ID)
	if err != nil {
		return fmt.Errorf("failed to update artist %d: %w", artist.ID, err)
	}
	return nil
}
