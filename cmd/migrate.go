package cmd

import (
	"log"

	"tunehub/config"
	"tunehub/db"
	"tunehub/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect with GORM: %v", err)
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
			log.Fatalf("Failed to migrate models: %v", err)
		}

		log.Println("Migration completed.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
