package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jwtauth "straypet/internal/adapters/auth/jwt"
	fsblob "straypet/internal/adapters/blob/fs"
	s3blob "straypet/internal/adapters/blob/s3"
	memcache "straypet/internal/adapters/cache/memory"
	rediscache "straypet/internal/adapters/cache/redis"
	"straypet/internal/adapters/geocoding/mapbox"
	"straypet/internal/adapters/geocoding/nominatim"
	pg "straypet/internal/adapters/storage/postgres"
	"straypet/internal/app"
	"straypet/internal/domain/geocoding"
	"straypet/internal/platform/config"
	"straypet/internal/platform/logger"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/blob"
	"straypet/internal/router"
)

// @title StrayPet API
// @version 1.0
// @description Adopciones, donaciones y mascotas perdidas.
// @BasePath /
func main() {
	cfg, envLoaded := config.Load()
	log := logger.NewFromEnv()
	log.Info("config loaded", map[string]any{"dotenv": envLoaded, "port": cfg.Port})

	ctx := context.Background()

	// Cache de geocodificación: Redis si está configurado, si no memoria.
	var cache geocoding.Cache = memcache.New()
	if cfg.RedisAddr != "" {
		rc, err := rediscache.Open(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			log.Warn("redis unavailable, using in-memory geocode cache", map[string]any{"err": err.Error()})
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	var providers []geocoding.Provider
	if cfg.MapboxToken != "" {
		mb, err := mapbox.New(cfg.MapboxToken, cfg.PrimaryTimeout)
		if err != nil {
			log.Error("mapbox init failed", map[string]any{"err": err.Error()})
		} else {
			providers = append(providers, mb)
		}
	}
	nm, err := nominatim.New(nominatim.Options{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.NominatimAgent,
		Timeout:   cfg.SecondaryTimeout,
	})
	if err != nil {
		log.Error("nominatim init failed", map[string]any{"err": err.Error()})
	} else {
		providers = append(providers, nm)
	}
	geocoder := geocoding.NewService(cache, log.With(map[string]any{"module": "geocoding"}), providers...)

	// Storage: Postgres si hay DSN, si no memoria.
	var storage *app.Storage
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer db.Close()

		if cfg.DBAutoMigrate {
			if err := pg.Migrate(db); err != nil {
				log.Error("migrations failed", map[string]any{"err": err.Error()})
				os.Exit(1)
			}
		}
		st := app.PostgresStorage(db)
		storage = &st
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var blobs blob.Store
	if cfg.S3Bucket != "" {
		s3, err := s3blob.Open(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			log.Error("s3 init failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		blobs = s3
	} else {
		fsStore, err := fsblob.New(cfg.MediaRoot)
		if err != nil {
			log.Error("media root unavailable", map[string]any{"err": err.Error(), "root": cfg.MediaRoot})
			os.Exit(1)
		}
		blobs = fsStore
	}

	var verifier auth.AuthVerifier // nil = modo dev (X-Debug-User-ID)
	if cfg.JWTSecret != "" {
		verifier = jwtauth.NewVerifier(cfg.JWTSecret)
	} else {
		log.Warn("JWT_SECRET not set, dev auth headers enabled", nil)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Storage:      storage,
		Geocoder:     geocoder,
		Blobs:        blobs,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", map[string]any{"err": err.Error()})
	}
	log.Info("server stopped", nil)
}
