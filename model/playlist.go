package model

import "time"

// Playlist is a user-owned, ordered collection of songs.
type Playlist struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CoverPath   string    `gorm:"size:767" json:"coverPath,omitempty"`
	IsPublic    bool      `gorm:"default:false" json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	SongCount int64 `gorm:"-" json:"songCount,omitempty"`
}

// PlaylistSong is the membership row tying a song into a playlist.
type PlaylistSong struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	PlaylistID int64     `gorm:"uniqueIndex:uq_playlist_song;not null" json:"playlistId"`
	SongID     int64     `gorm:"uniqueIndex:uq_playlist_song;not null" json:"songId"`
	Position   int       `json:"position"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"addedAt"`
}

// TableName overrides the gorm default pluralization.
func (PlaylistSong) TableName() string {
	return "playlist_songs"
}
