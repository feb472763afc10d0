package model

import (
	"database/sql"
	"time"
)

// Artist is a user-linked entity permitted to upload songs. One per user.
type Artist struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	Name       string         `json:"name"`
	Bio        sql.NullString `json:"bio,omitempty"`
	ImagePath  sql.NullString `json:"imagePath,omitempty"`
	GenreID    sql.NullInt64  `json:"genreId,omitempty"`
	Website    sql.NullString `json:"website,omitempty"`
	IsVerified bool           `json:"isVerified"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ArtistStats holds aggregates computed on read over an artist's songs.
// There is no denormalized counter at the artist level.
type ArtistStats struct {
	TotalSongs     int64 `json:"totalSongs"`
	TotalPlays     int64 `json:"totalPlays"`
	TotalDownloads int64 `json:"totalDownloads"`
}
