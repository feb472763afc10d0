package db

import (
	"database/sql"
	"fmt"
	"log"

	"tunehub/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB creates the core tables if they don't exist. Playlist and
// engagement tables are managed by GORM auto-migration (see cmd/migrate.go).
func InitDB() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);`},
		{"genres", `
	CREATE TABLE IF NOT EXISTS genres (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#6c5ce7'
	);`},
		{"user_profiles", `
	CREATE TABLE IF NOT EXISTS user_profiles (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		user_type VARCHAR(20) NOT NULL DEFAULT 'listener',
		bio TEXT,
		profile_picture VARCHAR(767),
		location VARCHAR(100),
		website VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_profile_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT uq_profile_user UNIQUE (user_id)
	);`},
		{"artists", `
	CREATE TABLE IF NOT EXISTS artists (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		name VARCHAR(200) NOT NULL,
		bio TEXT,
		image_path VARCHAR(767),
		genre_id BIGINT,
		website VARCHAR(255),
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_artist_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_artist_genre FOREIGN KEY (genre_id) REFERENCES genres(id) ON DELETE SET NULL,
		CONSTRAINT uq_artist_user UNIQUE (user_id)
	);`},
		{"songs", `
	CREATE TABLE IF NOT EXISTS songs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		artist_id BIGINT NOT NULL,
		genre_id BIGINT NOT NULL,
		title VARCHAR(200) NOT NULL,
		audio_path VARCHAR(767) NOT NULL,
		cover_path VARCHAR(767),
		duration INT UNSIGNED NOT NULL,
		plays BIGINT UNSIGNED NOT NULL DEFAULT 0,
		downloads BIGINT UNSIGNED NOT NULL DEFAULT 0,
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_song_artist FOREIGN KEY (artist_id) REFERENCES artists(id) ON DELETE CASCADE,
		CONSTRAINT fk_song_genre FOREIGN KEY (genre_id) REFERENCES genres(id) ON DELETE CASCADE
	);`},
		{"profile_favorite_genres", `
	CREATE TABLE IF NOT EXISTS profile_favorite_genres (
		profile_id BIGINT NOT NULL,
		genre_id BIGINT NOT NULL,
		PRIMARY KEY (profile_id, genre_id),
		CONSTRAINT fk_fav_profile FOREIGN KEY (profile_id) REFERENCES user_profiles(id) ON DELETE CASCADE,
		CONSTRAINT fk_fav_genre FOREIGN KEY (genre_id) REFERENCES genres(id) ON DELETE CASCADE
	);`},
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}

	log.Println("Database schema initialized.")
	return nil
}
