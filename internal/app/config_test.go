package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("IDENTITY_PROVIDER", IdentityLocal)
	t.Setenv("LOCAL_TOKEN_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.AppAddr)
	assert.Equal(t, StoreDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "agrodash-users", cfg.UserTableName)
	assert.Equal(t, "agrodash-profiles", cfg.ProfileTableName)
	assert.Equal(t, 5*time.Minute, cfg.AccountCacheTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresFirebaseProject(t *testing.T) {
	t.Setenv("IDENTITY_PROVIDER", IdentityFirebase)
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("IDENTITY_PROVIDER", IdentityLocal)
	t.Setenv("LOCAL_TOKEN_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := LoadConfig()
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		AppEnv:           "development",
		LogFormat:        "json",
		StoreDriver:      StoreDynamoDB,
		UserTableName:    "users",
		ProfileTableName: "profiles",
		IdentityProvider: IdentityLocal,
		LocalTokenSecret: "s3cret",
	}
}

func TestValidateRejectsLocalIdentityInProduction(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.AppEnv = "production"
	assert.Error(t, cfg.Validate())

	cfg.IdentityProvider = IdentityFirebase
	cfg.FirebaseProjectID = "agrodash-prod"
	assert.NoError(t, cfg.Validate())
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	cfg := validConfig()
	cfg.StoreDriver = StorePostgres
	cfg.PGDSN = "  "
	assert.Error(t, cfg.Validate())

	cfg.PGDSN = "postgres://localhost/agrodash"
	assert.NoError(t, cfg.Validate())
}

func TestValidateEndpointMustBeURL(t *testing.T) {
	cfg := validConfig()
	cfg.DynamoEndpoint = "not a url"
	assert.Error(t, cfg.Validate())

	cfg.DynamoEndpoint = "http://localhost:8000"
	assert.NoError(t, cfg.Validate())
}
