package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Data: DataConfig{
			BasePath: "/some/path",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, filepath.Join("/some/path", "takeoff.db"), cfg.DatabasePath())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		defaultPath string
		want        string
	}{
		{"empty uses default", "", "/default", "/default"},
		{"absolute unchanged", "/data/takeoff", "", "/data/takeoff"},
		{"tilde expanded", "~/takeoff", "", filepath.Join(home, "takeoff")},
		{"cleaned", "/data//takeoff/.", "", "/data/takeoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.defaultPath)
			require.NoError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestExpandDataPath_Default(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := &Config{}
	require.NoError(t, cfg.expandDataPath())
	assert.Equal(t, filepath.Join(home, "Takeoff", "data"), cfg.Data.BasePath)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nTAKEOFF_TEST_KEY=hello\nTAKEOFF_TEST_QUOTED=\"world\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TAKEOFF_TEST_KEY")
		os.Unsetenv("TAKEOFF_TEST_QUOTED")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("TAKEOFF_TEST_KEY"))
	assert.Equal(t, "world", os.Getenv("TAKEOFF_TEST_QUOTED"))
}

func TestLoadEnvFile_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TAKEOFF_TEST_EXISTING=file\n"), 0o600))

	t.Setenv("TAKEOFF_TEST_EXISTING", "env")
	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "env", os.Getenv("TAKEOFF_TEST_EXISTING"))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TAKEOFF_TEST_PRECEDENCE", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TAKEOFF_TEST_PRECEDENCE", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "TAKEOFF_TEST_PRECEDENCE", "default"))
	assert.Equal(t, "default", getConfigValue("", "TAKEOFF_TEST_MISSING", "default"))
}
