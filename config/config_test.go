package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "furniscan", SSLMode: "disable"},
		Firebase: FirebaseConfig{
			ProjectID:       "furniscan-prod",
			CredentialsPath: "/etc/furniscan/sa.json",
			WebAPIKey:       "AIzaSyFakeKeyForTests",
			StorageBucket:   "furniscan-prod.appspot.com",
		},
		Storage:    StorageConfig{Backend: "gcs"},
		Extraction: ExtractionConfig{Engine: "stub"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_SetupGate(t *testing.T) {
	t.Run("missing firebase values", func(t *testing.T) {
		cfg := validConfig()
		cfg.Firebase.ProjectID = ""
		cfg.Firebase.WebAPIKey = ""

		err := cfg.Validate()
		require.Error(t, err)

		var setupErr *SetupError
		require.ErrorAs(t, err, &setupErr)
		assert.ElementsMatch(t, []string{"FIREBASE_PROJECT_ID", "FIREBASE_WEB_API_KEY"}, setupErr.Vars)
	})

	t.Run("placeholder values are rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Firebase.ProjectID = "your-project-id"

		err := cfg.Validate()
		var setupErr *SetupError
		require.ErrorAs(t, err, &setupErr)
		assert.Equal(t, []string{"FIREBASE_PROJECT_ID"}, setupErr.Vars)
	})

	t.Run("s3 backend requires bucket and region", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Backend = "s3"
		cfg.Firebase.StorageBucket = ""

		err := cfg.Validate()
		var setupErr *SetupError
		require.ErrorAs(t, err, &setupErr)
		assert.ElementsMatch(t, []string{"S3_BUCKET", "S3_REGION"}, setupErr.Vars)
	})
}

func TestValidate_Engines(t *testing.T) {
	cfg := validConfig()
	cfg.Extraction.Engine = "claude"
	require.ErrorContains(t, cfg.Validate(), "ANTHROPIC_API_KEY")

	cfg.Extraction.AnthropicAPIKey = "sk-ant-test"
	require.NoError(t, cfg.Validate())

	cfg.Extraction.Engine = "tesseract"
	require.ErrorContains(t, cfg.Validate(), "EXTRACTION_ENGINE")
}

func TestValidate_StorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "ftp"
	require.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=require", d.DSN())
}
