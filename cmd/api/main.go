package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/config"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/httpapi"
	"swasthya.org/internal/obs"
	"swasthya.org/internal/report"
	"swasthya.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config may itself be broken; write plainly and exit.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := obs.NewLogger(cfg.Log.Level, cfg.Log.Pretty)
	obs.Init()

	var db *sql.DB
	if cfg.DB.DSN != "" {
		db, err = sql.Open("pgx", cfg.DB.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnLifetime)

		if cfg.DB.Migrate {
			if err := pg.Migrate(context.Background(), db); err != nil {
				log.Fatal().Err(err).Msg("apply migrations")
			}
		}
	} else {
		log.Warn().Msg("no database DSN configured; API will fail on store access")
	}

	store := pg.New(db)

	codec, err := auth.NewCodec(cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(cfg.Auth.AccessTTL),
		auth.WithRefreshTTL(cfg.Auth.RefreshTTL),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build token codec")
	}
	authSvc, err := auth.NewService(codec, store)
	if err != nil {
		log.Fatal().Err(err).Msg("build auth service")
	}
	hierSvc, err := hierarchy.NewService(store)
	if err != nil {
		log.Fatal().Err(err).Msg("build hierarchy service")
	}
	reportSvc, err := report.NewService(store)
	if err != nil {
		log.Fatal().Err(err).Msg("build report service")
	}

	api := httpapi.New(httpapi.Options{
		Auth:         authSvc,
		Hierarchy:    hierSvc,
		Reports:      reportSvc,
		DB:           db,
		Log:          log,
		Version:      version,
		CookieSecure: cfg.Auth.CookieSecure,
		RateLimitRPS: cfg.Server.RateLimitRPS,
		RateBurst:    cfg.Server.RateLimitBurst,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting swasthya-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Info().Msg("stopped")
}
