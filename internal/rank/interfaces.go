package rank

import (
	"context"
	"io"
	"time"
)

// EntityStore resolves the externally managed records a check needs.
// Missing rows are reported as an error wrapping ErrNotFound.
type EntityStore interface {
	GetSite(ctx context.Context, id int64) (Site, error)
	GetKeyword(ctx context.Context, id int64) (Keyword, error)
	GetTrackedURL(ctx context.Context, id int64) (TrackedURL, error)
	ListActiveKeywordIDs(ctx context.Context) ([]int64, error)
	ListActiveTrackedURLIDs(ctx context.Context) ([]int64, error)
}

// RankingStore appends check results and reads back history.
type RankingStore interface {
	AppendRanking(ctx context.Context, row Ranking) error
	AppendURLRanking(ctx context.Context, row URLRanking) error
	ListRankings(ctx context.Context, keywordID int64, limit int) ([]Ranking, error)
	ListURLRankings(ctx context.Context, trackedURLID int64, limit int) ([]URLRanking, error)
}

// SERPFetcher retrieves the raw results page for a keyword.
type SERPFetcher interface {
	Fetch(ctx context.Context, keyword string, scope SearchScope) (Page, error)
}

// RedirectResolver follows a single ad-redirect hop. It reports false when the
// destination could not be read; that is an expected outcome, not an error.
type RedirectResolver interface {
	Resolve(ctx context.Context, link string) (string, bool)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes check events to Pub/Sub (or similar). event names the
// kind of payload, e.g. EventRankingChecked.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// Hasher computes digests for snapshot keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces row IDs.
type IDGenerator interface {
	NewID() (string, error)
}
