package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"tunehub/model"
)

// NewArtist carries the artist fields supplied at signup.
type NewArtist struct {
	Name    string
	Bio     string
	Website string
	GenreID int64 // 0 means no genre
}

// UserRepository defines the interface for user and profile data operations.
type UserRepository interface {
	// CreateUser creates the user and its profile in one transaction.
	// When artist is non-nil the artist row joins the same transaction
	// and the profile is typed as artist; any failure rolls back all
	// three inserts.
	CreateUser(user *model.User, artist *NewArtist) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
	// GetProfileByUserID returns the user's profile, creating it first
	// if it is somehow missing. Repeated calls never produce duplicates.
	GetProfileByUserID(userID int64) (*model.UserProfile, error)
	SetFavoriteGenres(profileID int64, genreIDs []int64) error
	GetFavoriteGenres(profileID int64) ([]*model.Genre, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

func isDuplicateErr(err error) bool {
	// MySQL error 1062: duplicate entry for a unique key.
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}

// CreateUser adds a new user, its profile and optionally its artist record
// atomically.
func (r *mysqlUserRepository) CreateUser(user *model.User, artist *NewArtist) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin signup transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO users (username, email, password_hash, first_name, last_name) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}

	userType := model.UserTypeListener
	if artist != nil {
		userType = model.UserTypeArtist
	}

	// INSERT IGNORE keeps profile creation idempotent against the unique
	// (user_id) constraint.
	if _, err := tx.Exec(
		"INSERT IGNORE INTO user_profiles (user_id, user_type) VALUES (?, ?)",
		userID, userType); err != nil {
		return 0, fmt.Errorf("failed to insert user profile: %w", err)
	}

	if artist != nil {
		var genreID sql.NullInt64
		if artist.GenreID > 0 {
			genreID = sql.NullInt64{Int64: artist.GenreID, Valid: true}
		}
		var bio, website sql.NullString
		if artist.Bio != "" {
			bio = sql.NullString{String: artist.Bio, Valid: true}
		}
		if artist.Website != "" {
			website = sql.NullString{String: artist.Website, Valid: true}
		}

		if _, err := tx.Exec(
			"INSERT INTO artists (user_id, name, bio, website, genre_id) VALUES (?, ?, ?, ?, ?)",
			userID, artist.Name, bio, website, genreID); err != nil {
			if isDuplicateErr(err) {
				return 0, ErrDuplicateArtist
			}
			return 0, fmt.Errorf("failed to insert artist: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit signup transaction: %w", err)
	}
	return userID, nil
}

const userColumns = "id, username, email, password_hash, first_name, last_name, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// UsernameExists reports whether a username is already taken.
func (r *mysqlUserRepository) UsernameExists(username string) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check username %s: %w", username, err)
	}
	return count > 0, nil
}

// EmailExists reports whether an email is already taken.
func (r *mysqlUserRepository) EmailExists(email string) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	return count > 0, nil
}

const profileColumns = "id, user_id, user_type, bio, profile_picture, location, website, created_at, updated_at"

// GetProfileByUserID retrieves the user's profile, creating a listener
// profile when none exists yet.
func (r *mysqlUserRepository) GetProfileByUserID(userID int64) (*model.UserProfile, error) {
	profile, err := r.queryProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	// Race with a concurrent creation is absorbed by the unique
	// constraint and the second lookup.
	if _, err := r.db.Exec(
		"INSERT IGNORE INTO user_profiles (user_id, user_type) VALUES (?, ?)",
		userID, model.UserTypeListener); err != nil {
		return nil, fmt.Errorf("failed to create profile for user %d: %w", userID, err)
	}
	return r.queryProfile(userID)
}

func (r *mysqlUserRepository) queryProfile(userID int64) (*model.UserProfile, error) {
	row := r.db.QueryRow("SELECT "+profileColumns+" FROM user_profiles WHERE user_id = ?", userID)
	profile := &model.UserProfile{}
	err := row.Scan(&profile.ID, &profile.UserID, &profile.UserType, &profile.Bio,
		&profile.ProfilePicture, &profile.Location, &profile.Website,
		&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan profile for user %d: %w", userID, err)
	}
	return profile, nil
}

// SetFavoriteGenres replaces the profile's favorite genre set.
func (r *mysqlUserRepository) SetFavoriteGenres(profileID int64, genreIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin favorite genres transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM profile_favorite_genres WHERE profile_id = ?", profileID); err != nil {
		return fmt.Errorf("failed to clear favorite genres: %w", err)
	}
	for _, genreID := range genreIDs {
		if _, err := tx.Exec(
			"INSERT IGNORE INTO profile_favorite_genres (profile_id, genre_id) VALUES (?, ?)",
			profileID, genreID); err != nil {
			return fmt.Errorf("failed to insert favorite genre %d: %w", genreID, err)
		}
	}
	return tx.Commit()
}

// GetFavoriteGenres lists the profile's favorite genres.
func (r *mysqlUserRepository) GetFavoriteGenres(profileID int64) ([]*model.Genre, error) {
	rows, err := r.db.Query(`SELECT g.id, g.name, g.color
		FROM genres g
		JOIN profile_favorite_genres fg ON fg.genre_id = g.id
		WHERE fg.profile_id = ?
		ORDER BY g.name`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite genres: %w", err)
	}
	defer rows.Close()

	genres := make([]*model.Genre, 0)
	for rows.Next() {
		genre := &model.Genre{}
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Color); err != nil {
			return nil, fmt.Errorf("failed to scan favorite genre: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}
