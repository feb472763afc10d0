package repository

import (
	"errors"
	"fmt"
	"time"

	"tunehub/model"

	"gorm.io/gorm"
)

// EngagementRepository covers the append-only event log (plays, downloads)
// and the toggle relations (likes, follows).
type EngagementRepository interface {
	RecordPlay(play *model.SongPlay) error
	RecordDownload(download *model.SongDownload) error

	// ToggleLike adds the (user, song) pair when absent and removes it
	// when present. It returns the resulting liked state.
	ToggleLike(userID, songID int64) (bool, error)
	IsLiked(userID, songID int64) (bool, error)

	// ToggleFollow behaves like ToggleLike for (follower, artist).
	ToggleFollow(followerID, artistID int64) (bool, error)
	IsFollowing(followerID, artistID int64) (bool, error)
	FollowerCount(artistID int64) (int64, error)

	PlaysSince(songID int64, since time.Time) ([]*model.SongPlay, error)
	DownloadsSince(songID int64, since time.Time) ([]*model.SongDownload, error)
	CountArtistPlaysSince(artistID int64, since time.Time) (int64, error)
	RecentPlaysByUser(userID int64, limit int) ([]*model.SongPlay, error)
}

type gormEngagementRepository struct {
	db *gorm.DB
}

// NewGormEngagementRepository creates a new gormEngagementRepository.
func NewGormEngagementRepository(db *gorm.DB) EngagementRepository {
	return &gormEngagementRepository{db: db}
}

// RecordPlay appends one play event.
func (r *gormEngagementRepository) RecordPlay(play *model.SongPlay) error {
	if err := r.db.Create(play).Error; err != nil {
		return fmt.Errorf("failed to record play for song %d: %w", play.SongID, err)
	}
	return nil
}

// RecordDownload appends one download event.
func (r *gormEngagementRepository) RecordDownload(download *model.SongDownload) error {
	if err := r.db.Create(download).Error; err != nil {
		return fmt.Errorf("failed to record download for song %d: %w", download.SongID, err)
	}
	return nil
}

// ToggleLike flips the liked state inside a transaction so a concurrent
// double-toggle cannot create a duplicate pair.
func (r *gormEngagementRepository) ToggleLike(userID, songID int64) (bool, error) {
	var liked bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Like
		err := tx.Where("user_id = ? AND song_id = ?", userID, songID).First(&existing).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&model.Like{UserID: userID, SongID: songID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle like (user %d, song %d): %w", userID, songID, err)
	}
	return liked, nil
}

// IsLiked reports whether the user has liked the song.
func (r *gormEngagementRepository) IsLiked(userID, songID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Like{}).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check like (user %d, song %d): %w", userID, songID, err)
	}
	return count > 0, nil
}

// ToggleFollow flips the follow state for (follower, artist).
func (r *gormEngagementRepository) ToggleFollow(followerID, artistID int64) (bool, error) {
	var following bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Follow
		err := tx.Where("follower_id = ? AND artist_id = ?", followerID, artistID).First(&existing).Error
		switch {
		case err == nil:
			following = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			following = true
			return tx.Create(&model.Follow{FollowerID: followerID, ArtistID: artistID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle follow (user %d, artist %d): %w", followerID, artistID, err)
	}
	return following, nil
}

// IsFollowing reports whether the user follows the artist.
func (r *gormEngagementRepository) IsFollowing(followerID, artistID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).
		Where("follower_id = ? AND artist_id = ?", followerID, artistID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check follow (user %d, artist %d): %w", followerID, artistID, err)
	}
	return count > 0, nil
}

// FollowerCount counts an artist's followers.
func (r *gormEngagementRepository) FollowerCount(artistID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).Where("artist_id = ?", artistID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count followers for artist %d: %w", artistID, err)
	}
	return count, nil
}

// PlaysSince lists a song's play events after the cutoff, newest first.
func (r *gormEngagementRepository) PlaysSince(songID int64, since time.Time) ([]*model.SongPlay, error) {
	var plays []*model.SongPlay
	err := r.db.Where("song_id = ? AND played_at >= ?", songID, since).
		Order("played_at DESC").
		Find(&plays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query plays for song %d: %w", songID, err)
	}
	return plays, nil
}

// DownloadsSince lists a song's download events after the cutoff, newest first.
func (r *gormEngagementRepository) DownloadsSince(songID int64, since time.Time) ([]*model.SongDownload, error) {
	var downloads []*model.SongDownload
	err := r.db.Where("song_id = ? AND downloaded_at >= ?", songID, since).
		Order("downloaded_at DESC").
		Find(&downloads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads for song %d: %w", songID, err)
	}
	return downloads, nil
}

// CountArtistPlaysSince counts plays across all of an artist's songs after
// the cutoff.
func (r *gormEngagementRepository) CountArtistPlaysSince(artistID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.SongPlay{}).
		Joins("JOIN songs ON songs.id = song_plays.song_id").
		Where("songs.artist_id = ? AND song_plays.played_at >= ?", artistID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for artist %d: %w", artistID, err)
	}
	return count, nil
}

// RecentPlaysByUser lists a user's latest play events.
func (r *gormEngagementRepository) RecentPlaysByUser(userID int64, limit int) ([]*model.SongPlay, error) {
	var plays []*model.SongPlay
	err := r.db.Where("user_id = ?", userID).
		Order("played_at DESC").
		Limit(limit).
		Find(&plays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent plays for user %d: %w", userID, err)
	}
	return plays, nil
}
