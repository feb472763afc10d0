package model

import "time"

// SongPlay is one append-only play event. UserID is nil for anonymous plays.
type SongPlay struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	SongID         int64     `gorm:"index;not null" json:"songId"`
	UserID         *int64    `gorm:"index" json:"userId,omitempty"`
	IPAddress      string    `gorm:"size:45" json:"ipAddress,omitempty"`
	DurationPlayed int       `gorm:"default:0" json:"durationPlayed"` // Seconds played
	PlayedAt       time.Time `gorm:"autoCreateTime;index" json:"playedAt"`
}

// SongDownload is one append-only download event.
type SongDownload struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	SongID       int64     `gorm:"index;not null" json:"songId"`
	UserID       *int64    `gorm:"index" json:"userId,omitempty"`
	IPAddress    string    `gorm:"size:45" json:"ipAddress,omitempty"`
	DownloadedAt time.Time `gorm:"autoCreateTime;index" json:"downloadedAt"`
}

// Like marks a song as liked by a user. One row per (user, song) pair.
type Like struct {
	ID      int64     `gorm:"primaryKey" json:"id"`
	UserID  int64     `gorm:"uniqueIndex:uq_user_song;not null" json:"userId"`
	SongID  int64     `gorm:"uniqueIndex:uq_user_song;not null" json:"songId"`
	LikedAt time.Time `gorm:"autoCreateTime" json:"likedAt"`
}

// Follow is a user's subscription to an artist. One row per
// (follower, artist) pair.
type Follow struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	FollowerID int64     `gorm:"uniqueIndex:uq_follower_artist;not null" json:"followerId"`
	ArtistID   int64     `gorm:"uniqueIndex:uq_follower_artist;not null" json:"artistId"`
	FollowedAt time.Time `gorm:"autoCreateTime" json:"followedAt"`
}

// SongStats is the public counters payload for a song.
type SongStats struct {
	Plays     int64 `json:"plays"`
	Downloads int64 `json:"downloads"`
}
