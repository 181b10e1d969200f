// Command migrate applies the embedded schema migrations and exits.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"swasthya.org/internal/config"
	"swasthya.org/internal/obs"
	"swasthya.org/internal/store/pg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := obs.NewLogger(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.DB.DSN == "" {
		log.Fatal().Msg("SWASTHYA_DB_DSN is required")
	}
	db, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := pg.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}
	log.Info().Msg("migrations applied")
}
