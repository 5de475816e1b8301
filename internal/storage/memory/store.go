// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

var (
	_ rank.EntityStore  = (*Store)(nil)
	_ rank.RankingStore = (*Store)(nil)
)

// Seed is the on-disk shape accepted by LoadSeedFile.
type Seed struct {
	Sites       []rank.Site       `json:"sites"`
	Keywords    []rank.Keyword    `json:"keywords"`
	TrackedURLs []rank.TrackedURL `json:"tracked_urls"`
}

// Store keeps entities and appended rankings in maps guarded by a RWMutex.
type Store struct {
	mu          sync.RWMutex
	sites       map[int64]rank.Site
	keywords    map[int64]rank.Keyword
	trackedURLs map[int64]rank.TrackedURL
	rankings    map[int64][]rank.Ranking
	urlRankings map[int64][]rank.URLRanking
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		sites:       make(map[int64]rank.Site),
		keywords:    make(map[int64]rank.Keyword),
		trackedURLs: make(map[int64]rank.TrackedURL),
		rankings:    make(map[int64][]rank.Ranking),
		urlRankings: make(map[int64][]rank.URLRanking),
	}
}

// LoadSeedFile reads a JSON Seed from path into the store.
func (s *Store) LoadSeedFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	s.Load(seed)
	return nil
}

// Load upserts every entity in seed.
func (s *Store) Load(seed Seed) {
	for _, site := range seed.Sites {
		s.PutSite(site)
	}
	for _, kw := range seed.Keywords {
		s.PutKeyword(kw)
	}
	for _, tu := range seed.TrackedURLs {
		s.PutTrackedURL(tu)
	}
}

// PutSite upserts a site.
func (s *Store) PutSite(site rank.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[site.ID] = site
}

// PutKeyword upserts a keyword.
func (s *Store) PutKeyword(kw rank.Keyword) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords[kw.ID] = kw
}

// PutTrackedURL upserts a tracked URL.
func (s *Store) PutTrackedURL(tu rank.TrackedURL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackedURLs[tu.ID] = tu
}

// GetSite fetches a site by id.
func (s *Store) GetSite(_ context.Context, id int64) (rank.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[id]
	if !ok {
		return rank.Site{}, rank.NotFound("site", id)
	}
	return site, nil
}

// GetKeyword fetches a keyword by id.
func (s *Store) GetKeyword(_ context.Context, id int64) (rank.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kw, ok := s.keywords[id]
	if !ok {
		return rank.Keyword{}, rank.NotFound("keyword", id)
	}
	return kw, nil
}

// GetTrackedURL fetches a tracked URL by id.
func (s *Store) GetTrackedURL(_ context.Context, id int64) (rank.TrackedURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tu, ok := s.trackedURLs[id]
	if !ok {
		return rank.TrackedURL{}, rank.NotFound("tracked url", id)
	}
	return tu, nil
}

// ListActiveKeywordIDs returns active keyword ids in ascending order.
func (s *Store) ListActiveKeywordIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for id, kw := range s.keywords {
		if kw.IsActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// ListActiveTrackedURLIDs returns active tracked URL ids in ascending order.
func (s *Store) ListActiveTrackedURLIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for id, tu := range s.trackedURLs {
		if tu.IsActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// AppendRanking records a site-rank row.
func (s *Store) AppendRanking(_ context.Context, row rank.Ranking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[row.KeywordID] = append(s.rankings[row.KeywordID], row)
	return nil
}

// AppendURLRanking records a URL-tracking row.
func (s *Store) AppendURLRanking(_ context.Context, row rank.URLRanking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlRankings[row.TrackedURLID] = append(s.urlRankings[row.TrackedURLID], row)
	return nil
}

// ListRankings returns a copy of up to limit rows, newest first.
func (s *Store) ListRankings(_ context.Context, keywordID int64, limit int) ([]rank.Ranking, error) {
	s.mu.RLock()
	out := slices.Clone(s.rankings[keywordID])
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedAt.After(out[j].CheckedAt) })
	return truncate(out, limit), nil
}

// ListURLRankings returns a copy of up to limit rows, newest first.
func (s *Store) ListURLRankings(_ context.Context, trackedURLID int64, limit int) ([]rank.URLRanking, error) {
	s.mu.RLock()
	out := slices.Clone(s.urlRankings[trackedURLID])
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedAt.After(out[j].CheckedAt) })
	return truncate(out, limit), nil
}

func truncate[T any](rows []T, limit int) []T {
	if rows == nil {
		rows = []T{}
	}
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
