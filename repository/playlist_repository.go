package repository

import (
	"errors"
	"fmt"

	"tunehub/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist data operations.
// Only the owning user may mutate a playlist; ownership checks live in the
// handlers, which load the playlist first.
type PlaylistRepository interface {
	CreatePlaylist(playlist *model.Playlist) (int64, error)
	GetPlaylistByID(id int64) (*model.Playlist, error)
	GetPlaylistsByUserID(userID int64) ([]*model.Playlist, error)
	DeletePlaylist(id int64) error
	AddSong(playlistID, songID int64) error
	RemoveSong(playlistID, songID int64) error
	GetPlaylistSongIDs(playlistID int64) ([]int64, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// CreatePlaylist inserts a new playlist.
func (r *gormPlaylistRepository) CreatePlaylist(playlist *model.Playlist) (int64, error) {
	if err := r.db.Create(playlist).Error; err != nil {
		return 0, fmt.Errorf("failed to create playlist: %w", err)
	}
	return playlist.ID, nil
}

// GetPlaylistByID retrieves one playlist with its song count populated.
func (r *gormPlaylistRepository) GetPlaylistByID(id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := r.db.First(&playlist, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to load playlist %d: %w", id, err)
	}

	if err := r.db.Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", id).
		Count(&playlist.SongCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count songs in playlist %d: %w", id, err)
	}
	return &playlist, nil
}

// GetPlaylistsByUserID lists a user's playlists, newest first.
func (r *gormPlaylistRepository) GetPlaylistsByUserID(userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for user %d: %w", userID, err)
	}

	for _, playlist := range playlists {
		if err := r.db.Model(&model.PlaylistSong{}).
			Where("playlist_id = ?", playlist.ID).
			Count(&playlist.SongCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count songs in playlist %d: %w", playlist.ID, err)
		}
	}
	return playlists, nil
}

// DeletePlaylist removes a playlist and its membership rows.
func (r *gormPlaylistRepository) DeletePlaylist(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("failed to clear playlist %d songs: %w", id, err)
		}
		res := tx.Delete(&model.Playlist{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddSong appends a song at the end of the playlist. Adding a song that is
// already present is a no-op.
func (r *gormPlaylistRepository) AddSong(playlistID, songID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.PlaylistSong{}).
			Where("playlist_id = ? AND song_id = ?", playlistID, songID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check playlist membership: %w", err)
		}
		if count > 0 {
			return nil
		}

		var maxPos int
		row := tx.Model(&model.PlaylistSong{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), 0)").
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return fmt.Errorf("failed to read playlist position: %w", err)
		}

		entry := &model.PlaylistSong{PlaylistID: playlistID, SongID: songID, Position: maxPos + 1}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to add song %d to playlist %d: %w", songID, playlistID, err)
		}
		return nil
	})
}

// RemoveSong removes a song from the playlist.
func (r *gormPlaylistRepository) RemoveSong(playlistID, songID int64) error {
	err := r.db.Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Delete(&model.PlaylistSong{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove song %d from playlist %d: %w", songID, playlistID, err)
	}
	return nil
}

// GetPlaylistSongIDs lists the playlist's song IDs in position order.
func (r *gormPlaylistRepository) GetPlaylistSongIDs(playlistID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Order("position").
		Pluck("song_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs in playlist %d: %w", playlistID, err)
	}
	return ids, nil
}
