package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/config"
	memorypublisher "github.com/JakeFAU/naver-rank-tracker/internal/publisher/memory"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/memory"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 30},
		SERP: config.SERPConfig{
			BaseURL:        "http://127.0.0.1:1/search.naver",
			DefaultScope:   "nexearch",
			TimeoutSeconds: 1,
		},
		Storage: config.StorageConfig{Backend: "none", Prefix: "serp"},
		PubSub:  config.PubSubConfig{TopicName: "ranking-checked"},
	}
}

func TestNew_InMemoryDefaults(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	assert.IsType(t, &memory.Store{}, a.store)
	assert.IsType(t, &memorypublisher.Publisher{}, a.publisher)
	assert.NotNil(t, a.Tracker())
	assert.False(t, a.archive.Enabled())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_LocalArchive(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage.Backend = "local"
	cfg.Storage.LocalDir = t.TempDir()
	cfg.Storage.KeyLength = 16
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.True(t, a.archive.Enabled())
}

func TestArchiveHasher(t *testing.T) {
	t.Parallel()

	full, err := archiveHasher(0)
	require.NoError(t, err)
	sum, err := full.Hash([]byte("serp"))
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	short, err := archiveHasher(16)
	require.NoError(t, err)
	prefix, err := short.Hash([]byte("serp"))
	require.NoError(t, err)
	assert.Equal(t, sum[:16], prefix)

	_, err = archiveHasher(4)
	require.Error(t, err)
}

func TestNew_SeedsMemoryStore(t *testing.T) {
	t.Parallel()

	seed := memory.Seed{
		Keywords: []rank.Keyword{{ID: 4, SiteID: 1, Keyword: "강남 맛집", IsActive: true}},
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := testConfig(t)
	cfg.DB.SeedFile = path
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ids, err := a.store.ListActiveKeywordIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)
}

func TestNew_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "missing seed file", mutate: func(c *config.Config) { c.DB.SeedFile = "/nonexistent/seed.json" }},
		{name: "bad dsn", mutate: func(c *config.Config) { c.DB.DSN = "postgres://ranks@localhost:notaport/ranks" }},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Storage.Backend = "s3" }},
		{name: "bad archive key length", mutate: func(c *config.Config) {
			c.Storage.Backend = "memory"
			c.Storage.KeyLength = 4
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			tc.mutate(&cfg)
			a, err := New(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, a)
		})
	}
}

func TestClose_RunsInReverseOrder(t *testing.T) {
	t.Parallel()

	var order []int
	a := &App{logger: zap.NewNop()}
	a.addCloser(func() error { order = append(order, 1); return nil })
	a.addCloser(func() error { order = append(order, 2); return assert.AnError })

	err := a.Close()
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{2, 1}, order)
	require.NoError(t, a.Close())
}
