package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
)

// fakePool satisfies db.Pool; only Ping is exercised.
type fakePool struct {
	db.Pool
	pingErr error
}

func (f fakePool) Ping(context.Context) error { return f.pingErr }

func testConfig() config.Config {
	return config.Config{
		CORSOrigin:          "https://app.example.com",
		AccessTokenSecret:   "access",
		AccessTokenTTL:      time.Minute,
		RefreshTokenSecret:  "refresh",
		RefreshTokenTTL:     time.Hour,
		UploadDir:           os.TempDir(),
		MaxUploadBytes:      1 << 20,
		FFProbePath:         "ffprobe",
		FFProbeTimeout:      time.Second,
		AuthRateLimit:       5,
		AuthRateLimitWindow: time.Minute,
		ObjectStore:         config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
	}
}

func TestBuildDependencies(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), fakePool{}, testConfig())
	require.NoError(t, err)

	assert.NotNil(t, deps.DB)
	assert.NotNil(t, deps.Users)
	assert.NotNil(t, deps.Sessions)
	assert.NotNil(t, deps.Videos)
	assert.NotNil(t, deps.Comments)
	assert.NotNil(t, deps.Tweets)
	assert.NotNil(t, deps.Playlists)
	assert.NotNil(t, deps.Likes)
	assert.NotNil(t, deps.Subscriptions)
	assert.NotNil(t, deps.Views)
	assert.NotNil(t, deps.Media)
	assert.NotNil(t, deps.Auth.Tokens)
	assert.NotNil(t, deps.Auth.Users)
	assert.NotNil(t, deps.AuthLimiter)
}

func TestBuildDependenciesRequiresBucket(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore.Bucket = ""

	_, err := buildDependencies(context.Background(), fakePool{}, cfg)
	assert.Error(t, err)
}

func TestHandlerStack(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	deps, err := buildDependencies(context.Background(), fakePool{pingErr: &pgconn.PgError{Code: "57P01"}}, cfg)
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := newHandler(logger, cfg, deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		StatusCode int  `json:"statusCode"`
		Success    bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusServiceUnavailable, body.StatusCode)
	assert.False(t, body.Success)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger, err = newLogger("WARN")
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	_, err = newLogger("chatty")
	assert.Error(t, err)
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil))
	assert.ErrorContains(t, Run(context.Background(), []string{"explode"}), "unknown command")
}

func TestListMigrationsOrdersSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_views.sql", "0001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755))

	migrations, err := listMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001_init.sql", migrations[0].Version)
	assert.Equal(t, filepath.Join(dir, "0002_views.sql"), migrations[1].Path)

	_, err = listMigrations(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMigrationStatus(t *testing.T) {
	var out strings.Builder
	m := migrator{out: &out}
	m.status(
		[]migration{{Version: "0001_init.sql"}, {Version: "0002_views.sql"}},
		map[string]struct{}{"0001_init.sql": {}},
	)
	assert.Equal(t, "[x] 0001_init.sql\n[ ] 0002_views.sql\n", out.String())
}

func TestMigrationBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), migrationBackoff(0))
	assert.Equal(t, 100*time.Millisecond, migrationBackoff(1))
	assert.Equal(t, 200*time.Millisecond, migrationBackoff(2))
	assert.Equal(t, migrationMaxBackoff, migrationBackoff(10))
	assert.Equal(t, migrationMaxBackoff, migrationBackoff(80))
}

func TestShouldRetryMigration(t *testing.T) {
	assert.False(t, shouldRetryMigration(nil))
	assert.True(t, shouldRetryMigration(&pgconn.PgError{Code: "40001"}))
	assert.True(t, shouldRetryMigration(context.DeadlineExceeded))
	assert.False(t, shouldRetryMigration(&pgconn.PgError{Code: "42601"}))
}

func TestSeedFileName(t *testing.T) {
	assert.Equal(t, "dev_seed.sql", seedFileName("dev"))
	assert.Equal(t, "custom.sql", seedFileName("custom.sql"))
}
