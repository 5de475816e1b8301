package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

func TestStoreLookups(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	store.PutSite(rank.Site{ID: 1, Name: "Acme", URL: "https://acme.co.kr"})
	store.PutKeyword(rank.Keyword{ID: 10, SiteID: 1, Keyword: "보험", IsActive: true})

	site, err := store.GetSite(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", site.Name)

	kw, err := store.GetKeyword(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kw.SiteID)

	_, err = store.GetKeyword(ctx, 99)
	require.ErrorIs(t, err, rank.ErrNotFound)
	assert.EqualError(t, err, "keyword not found")

	_, err = store.GetSite(ctx, 2)
	assert.EqualError(t, err, "site not found")

	_, err = store.GetTrackedURL(ctx, 3)
	assert.EqualError(t, err, "tracked url not found")
}

func TestStoreActiveIDsSorted(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutKeyword(rank.Keyword{ID: 5, IsActive: true})
	store.PutKeyword(rank.Keyword{ID: 2, IsActive: true})
	store.PutKeyword(rank.Keyword{ID: 3, IsActive: false})
	store.PutTrackedURL(rank.TrackedURL{ID: 8, IsActive: true})

	ids, err := store.ListActiveKeywordIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, ids)

	ids, err = store.ListActiveTrackedURLIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, ids)
}

func TestStoreRankingsNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	for i := range 3 {
		require.NoError(t, store.AppendRanking(ctx, rank.Ranking{
			ID:        string(rune('a' + i)),
			KeywordID: 1,
			CheckedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := store.ListRankings(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0].ID)
	assert.Equal(t, "b", rows[1].ID)

	rows[0].ID = "mutated"
	again, err := store.ListRankings(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, "c", again[0].ID)

	empty, err := store.ListRankings(ctx, 42, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStoreURLRankings(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.AppendURLRanking(ctx, rank.URLRanking{ID: "x", TrackedURLID: 4, SectionExists: true}))

	rows, err := store.ListURLRankings(ctx, 4, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].SectionExists)
}

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{
  "sites": [{"id": 1, "name": "Acme", "url": "acme.co.kr"}],
  "keywords": [{"id": 2, "site_id": 1, "keyword": "치과", "is_active": true}],
  "tracked_urls": [{"id": 3, "keyword": "치과", "target_url": "https://blog.naver.com/a/1", "section": "VIEW", "is_active": true}]
}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	store := NewStore()
	require.NoError(t, store.LoadSeedFile(path))

	tu, err := store.GetTrackedURL(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, tu.Section)
	assert.Equal(t, "VIEW", *tu.Section)

	require.Error(t, store.LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")))
}
