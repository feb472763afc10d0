package repository

import (
	"database/sql"
	"fmt"

	"tunehub/model"
)

// GenreRepository defines the interface for genre data operations.
type GenreRepository interface {
	GetAllGenres() ([]*model.Genre, error)
	GetGenreByID(id int64) (*model.Genre, error)
	GetGenresWithCounts() ([]*model.GenreWithCount, error)
}

type mysqlGenreRepository struct {
	db *sql.DB
}

// NewMySQLGenreRepository creates a new mysqlGenreRepository.
func NewMySQLGenreRepository(db *sql.DB) GenreRepository {
	return &mysqlGenreRepository{db: db}
}

// GetAllGenres lists every genre ordered by name.
func (r *mysqlGenreRepository) GetAllGenres() ([]*model.Genre, error) {
	rows, err := r.db.Query("SELECT id, name, color FROM genres ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	genres := make([]*model.Genre, 0)
	for rows.Next() {
		genre := &model.Genre{}
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Color); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}

// GetGenreByID retrieves one genre.
func (r *mysqlGenreRepository) GetGenreByID(id int64) (*model.Genre, error) {
	genre := &model.Genre{}
	err := r.db.QueryRow("SELECT id, name, color FROM genres WHERE id = ?", id).
		Scan(&genre.ID, &genre.Name, &genre.Color)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Genre not found
		}
		return nil, fmt.Errorf("failed to scan genre %d: %w", id, err)
	}
	return genre, nil
}

// GetGenresWithCounts lists genres alongside their song counts.
func (r *mysqlGenreRepository) GetGenresWithCounts() ([]*model.GenreWithCount, error) {
	rows, err := r.db.Query(`SELECT g.id, g.name, g.color, COUNT(s.id)
		FROM genres g
		LEFT JOIN songs s ON s.genre_id = g.id
		GROUP BY g.id, g.name, g.color
		ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre counts: %w", err)
	}
	defer rows.Close()

	genres := make([]*model.GenreWithCount, 0)
	for rows.Next() {
		genre := &model.GenreWithCount{}
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Color, &genre.SongCount); err != nil {
			return nil, fmt.Errorf("failed to scan genre count: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}
