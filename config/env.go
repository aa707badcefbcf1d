package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
	"golang.org/x/crypto/bcrypt"

	"lunch-system/internal/cutoff"
	"lunch-system/internal/store"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	Cutoff  CutoffConfig
	Auth    AuthConfig
}

type ServerConfig struct {
	HTTPPort   string
	GRPCPort   string
	CORSOrigin string
	RateLimit  string
}

type StorageConfig struct {
	Driver      string
	DBPath      string
	DBKey       string
	DSN         string
	SnapshotTTL time.Duration
}

type CutoffConfig struct {
	Clock    string
	Timezone string
}

// AuthConfig holds bcrypt hashes, never the plain passwords. An empty hash
// disables login for that role.
type AuthConfig struct {
	AdminHash      []byte
	SuperAdminHash []byte
	JWTSecret      []byte
	TokenTTL       time.Duration
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from an arbitrary lookup function.
func FromEnv(lookup func(string) string) (Config, error) {
	getEnv := func(key, defaultValue string) string {
		if value := strings.TrimSpace(lookup(key)); value != "" {
			return value
		}
		return defaultValue
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}
	snapshotTTL, err := time.ParseDuration(getEnv("SNAPSHOT_TTL", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("SNAPSHOT_TTL: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "12h"))
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}

	cfg := Config{
		Server: ServerConfig{
			HTTPPort:   getEnv("HTTP_PORT", ":8080"),
			GRPCPort:   getEnv("GRPC_PORT", ":50051"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
			RateLimit:  getEnv("RATE_LIMIT", "60-M"),
		},
		Storage: StorageConfig{
			DBPath:      getEnv("DB_PATH", "data/db.json"),
			DBKey:       getEnv("DB_KEY", store.DefaultDocumentKey),
			DSN:         getEnv("DATABASE_DSN", ""),
			SnapshotTTL: snapshotTTL,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Cluster:  splitList(getEnv("REDIS_CLUSTER_ADDRS", "")),
		},
		Cutoff: CutoffConfig{
			Clock:    getEnv("CUTOFF_TIME", "11:00"),
			Timezone: getEnv("TIMEZONE", "Local"),
		},
		Auth: AuthConfig{
			JWTSecret: []byte(getEnv("JWT_SECRET", "")),
			TokenTTL:  tokenTTL,
		},
	}

	defaultDriver := store.ModeFile
	if cfg.Redis.Enabled() {
		defaultDriver = store.ModeRedis
	}
	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", defaultDriver))
	switch cfg.Storage.Driver {
	case store.ModeFile:
	case store.ModeRedis:
		if !cfg.Redis.Enabled() {
			cfg.Redis.Host = "localhost"
		}
	case store.ModePostgres:
		if cfg.Storage.DSN == "" {
			return Config{}, fmt.Errorf("STORAGE_DRIVER=postgres requires DATABASE_DSN")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if _, err := limiter.NewRateFromFormatted(cfg.Server.RateLimit); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if _, err := cfg.Gate(); err != nil {
		return Config{}, err
	}

	if cfg.Auth.AdminHash, err = hashPassword(lookup("ADMIN_PASSWORD")); err != nil {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	if cfg.Auth.SuperAdminHash, err = hashPassword(lookup("SUPERADMIN_PASSWORD")); err != nil {
		return Config{}, fmt.Errorf("SUPERADMIN_PASSWORD: %w", err)
	}
	if len(cfg.Auth.JWTSecret) == 0 {
		if len(cfg.Auth.AdminHash) > 0 || len(cfg.Auth.SuperAdminHash) > 0 {
			return Config{}, fmt.Errorf("JWT_SECRET is required when admin passwords are set")
		}
		log.Println("No admin passwords configured, admin login is disabled")
	}

	return cfg, nil
}

// Gate builds the ordering cutoff gate from CUTOFF_TIME and TIMEZONE.
func (c Config) Gate() (*cutoff.Gate, error) {
	hour, minute, err := cutoff.ParseClock(c.Cutoff.Clock)
	if err != nil {
		return nil, fmt.Errorf("CUTOFF_TIME: %w", err)
	}
	loc, err := time.LoadLocation(c.Cutoff.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return cutoff.NewGate(hour, minute, loc), nil
}

func hashPassword(plain string) ([]byte, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
