package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_RequiresMongoURIForMongoDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGO_URI", "")
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.AllowAdminSignup)
	assert.True(t, cfg.AllowsAnyOrigin())
	assert.True(t, cfg.IsDev())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ALLOW_ADMIN_SIGNUP", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.AllowAdminSignup)
	assert.False(t, cfg.AllowsAnyOrigin())
}

func TestValidate_UnknownDriver(t *testing.T) {
	c := &Config{JWTSecret: "s", StoreDriver: "postgres", JWTTTL: time.Hour}
	assert.Error(t, c.Validate())
}
