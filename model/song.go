package model

import (
	"database/sql"
	"fmt"
	"path"
	"strings"
	"time"
)

// Song represents an uploaded song owned by an artist.
type Song struct {
	ID         int64          `json:"id"`
	ArtistID   int64          `json:"artistId"`
	GenreID    int64          `json:"genreId"`
	Title      string         `json:"title"`
	AudioPath  string         `json:"-"` // Object key in storage, not exposed directly
	CoverPath  sql.NullString `json:"coverPath,omitempty"`
	Duration   int            `json:"duration"` // Duration in seconds, always > 0
	Plays      int64          `json:"plays"`
	Downloads  int64          `json:"downloads"`
	IsApproved bool           `json:"isApproved"`
	IsFeatured bool           `json:"isFeatured"`
	UploadedAt time.Time      `json:"uploadedAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`

	// Joined fields, populated by list queries.
	ArtistName string `json:"artistName,omitempty"`
	GenreName  string `json:"genreName,omitempty"`
}

// FormattedDuration renders the stored duration as m:ss with zero-padded
// seconds, e.g. 210 -> "3:30".
func (s *Song) FormattedDuration() string {
	minutes := s.Duration / 60
	seconds := s.Duration % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// AudioExt returns the extension of the stored audio object without the
// leading dot, falling back to mp3 when the key carries none.
func (s *Song) AudioExt() string {
	ext := strings.TrimPrefix(path.Ext(s.AudioPath), ".")
	if ext == "" {
		return "mp3"
	}
	return ext
}

// DownloadFilename is the attachment name served on download:
// "{title} - {artist}.{ext}" using the real stored extension.
func (s *Song) DownloadFilename() string {
	return fmt.Sprintf("%s - %s.%s", s.Title, s.ArtistName, s.AudioExt())
}
