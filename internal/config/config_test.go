package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  grpc_port: 9091
  shutdown_timeout: 3s
database:
  driver: postgres
  url: postgres://localhost/tasks?sslmode=disable
pagination:
  default_page_size: 20
email:
  enabled: true
  smtp_host: smtp.example.com
  to: [team@example.com]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 9091, cfg.Server.GRPCPort)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, []string{"team@example.com"}, cfg.Email.To)
}

func TestLoadTOMLWithEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
port = 7000

[database]
driver = "mongo"
url = "mongodb://file"

[telegram]
enabled = true
bot_token = "from-file"
`)
	t.Setenv("PORT", "7100")
	t.Setenv("DATABASE_URL", "mongodb://env")
	t.Setenv("DB_NAME", "tasks_test")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, "mongodb://env", cfg.Database.URL)
	assert.Equal(t, "tasks_test", cfg.Database.Name)
	assert.Equal(t, "from-file", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.json", `{}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "database:\n  driver: sqlite\n"))
	assert.ErrorContains(t, err, "unknown database.driver")

	_, err = Load(writeFile(t, "nourl.yaml", "database:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "database.url")

	t.Setenv("PORT", "eighty")
	_, err = Load(writeFile(t, "ok.yaml", ""))
	assert.ErrorContains(t, err, "PORT")
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 12, cfg.Pagination.DefaultPageSize)
	assert.False(t, cfg.Auth.Required)

	cfg.Auth.Required = true
	assert.Error(t, cfg.Validate())
}
