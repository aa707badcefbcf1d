package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, ":50051", cfg.Server.GRPCPort)
	assert.Equal(t, "60-M", cfg.Server.RateLimit)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "data/db.json", cfg.Storage.DBPath)
	assert.Equal(t, "LUNCH_APP_DB", cfg.Storage.DBKey)
	assert.Equal(t, 2*time.Second, cfg.Storage.SnapshotTTL)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Auth.AdminHash)

	gate, err := cfg.Gate()
	require.NoError(t, err)
	assert.Equal(t, "11:00 Local", gate.String())
}

func TestFromEnvPicksRedisWhenConfigured(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"REDIS_HOST": "cache", "REDIS_DB": "2"}))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 2, cfg.Redis.DB)

	cfg, err = FromEnv(env(map[string]string{"REDIS_CLUSTER_ADDRS": "a:1, b:2,"}))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Redis.Cluster)

	cfg, err = FromEnv(env(map[string]string{"REDIS_HOST": "cache", "STORAGE_DRIVER": "FILE"}))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Driver)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad driver":           {"STORAGE_DRIVER": "mongo"},
		"postgres without dsn": {"STORAGE_DRIVER": "postgres"},
		"bad cutoff":           {"CUTOFF_TIME": "25:00"},
		"bad timezone":         {"TIMEZONE": "Mars/Olympus"},
		"bad rate":             {"RATE_LIMIT": "lots"},
		"bad ttl":              {"SNAPSHOT_TTL": "soon"},
		"bad redis db":         {"REDIS_DB": "zero"},
		"password no secret":   {"ADMIN_PASSWORD": "admin123"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(env(values))
			assert.Error(t, err)
		})
	}
}

func TestFromEnvHashesPasswords(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"ADMIN_PASSWORD":      "admin123",
		"SUPERADMIN_PASSWORD": " root ",
		"JWT_SECRET":          "s3cret",
		"STORAGE_DRIVER":      "postgres",
		"DATABASE_DSN":        "host=db user=lunch dbname=lunch",
	}))
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(cfg.Auth.AdminHash, []byte("admin123")))
	assert.NoError(t, bcrypt.CompareHashAndPassword(cfg.Auth.SuperAdminHash, []byte("root")))
	assert.Equal(t, []byte("s3cret"), cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()

	rdb, err := NewRedisClient(context.Background(), RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}
