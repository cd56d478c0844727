package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa todo lo que main necesita para cablear adapters.
// Todo es opcional: sin DB se usa memoria, sin Redis cache en memoria,
// sin token de Mapbox se va directo a Nominatim.
type Config struct {
	Port string

	DBDSN         string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MapboxToken      string
	NominatimURL     string
	NominatimAgent   string
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration

	MediaRoot string
	S3Bucket  string
	AWSRegion string

	JWTSecret string
}

// Load lee .env (si existe) y luego el entorno del proceso.
// Devuelve además si se cargó el archivo, para loguearlo desde main.
func Load() (Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		DBDSN:            getEnv("DB_DSN", ""),
		DBAutoMigrate:    getBool("DB_AUTO_MIGRATE", true),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getInt("REDIS_DB", 0),
		MapboxToken:      firstNonEmpty(os.Getenv("MAPBOX_TOKEN"), os.Getenv("MAPBOX_ACCESS_TOKEN")),
		NominatimURL:     getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimAgent:   getEnv("NOMINATIM_USER_AGENT", "straypet/1.0 (geocoder)"),
		PrimaryTimeout:   getDuration("GEOCODER_PRIMARY_TIMEOUT", 6*time.Second),
		SecondaryTimeout: getDuration("GEOCODER_SECONDARY_TIMEOUT", 8*time.Second),
		MediaRoot:        getEnv("MEDIA_ROOT", "./media"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		AWSRegion:        getEnv("AWS_REGION", "eu-central-1"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
	}
	return cfg, loaded
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getDuration acepta "6s" o un número de segundos ("6").
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
