package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tunehub/config"
	"tunehub/core/auth"
	"tunehub/core/live"
	"tunehub/db"
	"tunehub/logger"
	"tunehub/model"
	"tunehub/repository"
	"tunehub/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.InitJWT(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(
		&model.Playlist{},
		&model.PlaylistSong{},
		&model.SongPlay{},
		&model.SongDownload{},
		&model.Like{},
		&model.Follow{},
	); err != nil {
		logger.Fatal("Failed to migrate models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		// Stats caching and live updates degrade without Redis, playback
		// and downloads do not.
		logger.Warn("Redis unavailable, continuing without stats cache", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	artistRepo := repository.NewMySQLArtistRepository(db.DB)
	genreRepo := repository.NewMySQLGenreRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)
	engagementRepo := repository.NewGormEngagementRepository(db.GormDB)

	apiHandler := NewAPIHandler(userRepo, artistRepo, genreRepo, songRepo, playlistRepo, engagementRepo, cfg)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := live.NewHub()
	go hub.Run(hubCtx)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Accounts.
	router.HandleFunc("/api/signup", apiHandler.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", apiHandler.AuthMiddleware(apiHandler.LogoutHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/profile", apiHandler.AuthMiddleware(apiHandler.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/profile/genres", apiHandler.AuthMiddleware(apiHandler.SetFavoriteGenresHandler)).Methods(http.MethodPut)

	// Browsing.
	router.HandleFunc("/api/home", apiHandler.OptionalAuthMiddleware(apiHandler.HomeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/discover", apiHandler.DiscoverHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genres", apiHandler.GenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre/{id}", apiHandler.GenreSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", apiHandler.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/library", apiHandler.AuthMiddleware(apiHandler.LibraryHandler)).Methods(http.MethodGet)

	// Playback and engagement.
	router.HandleFunc("/api/play-song/{id}", apiHandler.OptionalAuthMiddleware(apiHandler.PlaySongHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/like-song/{id}", apiHandler.AuthMiddleware(apiHandler.LikeSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/download-song/{id}", apiHandler.AuthMiddleware(apiHandler.DownloadSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/get-song-stats/{id}", apiHandler.SongStatsHandler).Methods(http.MethodGet)

	// Playlists.
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.PlaylistDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs/{songId}", apiHandler.AuthMiddleware(apiHandler.AddPlaylistSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{songId}", apiHandler.AuthMiddleware(apiHandler.RemovePlaylistSongHandler)).Methods(http.MethodDelete)

	// Artists.
	router.HandleFunc("/api/artists/{id}", apiHandler.OptionalAuthMiddleware(apiHandler.ArtistPageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}/follow", apiHandler.AuthMiddleware(apiHandler.FollowArtistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/artist/profile", apiHandler.AuthMiddleware(apiHandler.UpdateArtistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/artist/dashboard", apiHandler.AuthMiddleware(apiHandler.ArtistDashboardHandler)).Methods(http.MethodGet)

	// Uploading and analytics.
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/my-uploads", apiHandler.AuthMiddleware(apiHandler.MyUploadsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/my-uploads/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/analytics/song/{id}", apiHandler.AuthMiddleware(apiHandler.SongAnalyticsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/top-songs", apiHandler.AuthMiddleware(apiHandler.TopSongsHandler)).Methods(http.MethodGet)

	// Live stats over WebSocket.
	router.HandleFunc("/ws/stats", apiHandler.StatsWSHandler(hub))

	// Stored media (audio, covers) served straight from the bucket.
	router.PathPrefix("/media/").HandlerFunc(mediaHandler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Content-Disposition")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var mediaContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// mediaHandler streams a stored object by its bucket key. Keys are
// immutable (UUID-named), so responses cache indefinitely.
func mediaHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/media/")
	if key == "" || strings.Contains(key, "..") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := storage.OpenObject(ctx, key)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if idx := strings.LastIndex(key, "."); idx >= 0 {
			if byExt, ok := mediaContentTypes[strings.ToLower(key[idx:])]; ok {
				contentType = byExt
			}
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Media stream interrupted", logger.ErrorField(err), logger.String("key", key))
	}
}
