package rank

import "time"

// SearchScope selects the search vertical queried on the SERP.
type SearchScope string

// Supported search verticals.
const (
	ScopeIntegrated SearchScope = "nexearch"
	ScopeView       SearchScope = "view"
	ScopeBlog       SearchScope = "blog"
	ScopeNews       SearchScope = "news"
)

// Valid reports whether the scope is one the fetcher knows how to query.
func (s SearchScope) Valid() bool {
	switch s {
	case ScopeIntegrated, ScopeView, ScopeBlog, ScopeNews:
		return true
	default:
		return false
	}
}

// CheckType distinguishes the two batch check flavours.
type CheckType string

// Check types, also used as metric labels.
const (
	CheckTypeSite CheckType = "site"
	CheckTypeURL  CheckType = "url"
)

// Site is a tracked property whose hostname is matched against SERP results.
type Site struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Keyword is a query run against the SERP on behalf of a Site.
type Keyword struct {
	ID       int64  `json:"id"`
	SiteID   int64  `json:"site_id"`
	Keyword  string `json:"keyword"`
	IsActive bool   `json:"is_active"`
}

// Ranking is one immutable site-rank observation.
type Ranking struct {
	ID           string      `json:"id"`
	KeywordID    int64       `json:"keyword_id"`
	RankPosition *int        `json:"rank_position"`
	SearchType   SearchScope `json:"search_type"`
	ResultURL    *string     `json:"result_url"`
	ResultTitle  *string     `json:"result_title"`
	CheckedAt    time.Time   `json:"checked_at"`
}

// TrackedURL is a specific URL monitored for exposure, optionally within one section.
type TrackedURL struct {
	ID        int64   `json:"id"`
	Keyword   string  `json:"keyword"`
	TargetURL string  `json:"target_url"`
	Section   *string `json:"section"`
	Memo      string  `json:"memo"`
	IsActive  bool    `json:"is_active"`
}

// URLRanking is one immutable URL-tracking observation.
type URLRanking struct {
	ID            string    `json:"id"`
	TrackedURLID  int64     `json:"tracked_url_id"`
	RankPosition  *int      `json:"rank_position"`
	SectionName   *string   `json:"section_name"`
	SectionRank   *int      `json:"section_rank"`
	IsExposed     bool      `json:"is_exposed"`
	SectionExists bool      `json:"section_exists"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Page is a fetched SERP document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Entry is one classified result on a SERP, in visual order.
type Entry struct {
	URL         string  `json:"url"`
	OriginalURL string  `json:"original_url,omitempty"`
	Title       string  `json:"title"`
	AreaCode    string  `json:"area_code"`
	Section     *string `json:"section"`
}

// SectionName returns the entry's section or "" when it is unclassified.
func (e Entry) SectionName() string {
	if e.Section == nil {
		return ""
	}
	return *e.Section
}

// SiteRank is the first entry on a SERP whose hostname matches a Site.
type SiteRank struct {
	Rank    int    `json:"rank"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
}

// URLTrack is the outcome of looking for an exact URL on a SERP.
type URLTrack struct {
	IsExposed      bool    `json:"is_exposed"`
	SectionExists  bool    `json:"section_exists"`
	SectionRank    *int    `json:"section_rank"`
	OverallRank    *int    `json:"overall_rank"`
	FoundInSection *string `json:"found_in_section"`
}

// KeywordOutcome carries the success fields of a site-rank report entry.
type KeywordOutcome struct {
	RankingID  string      `json:"ranking_id"`
	KeywordID  int64       `json:"keyword_id"`
	Keyword    string      `json:"keyword"`
	SiteURL    string      `json:"site_url"`
	SearchType SearchScope `json:"search_type"`
	Rank       *int        `json:"rank"`
	URL        *string     `json:"url"`
	Title      *string     `json:"title"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// KeywordReport is one element of a site-rank batch response. Exactly one of
// the embedded outcome or Error is set; PersistError may accompany an outcome.
type KeywordReport struct {
	ID int64 `json:"id"`
	*KeywordOutcome
	Error        string `json:"error,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
}

// URLOutcome carries the success fields of a URL-tracking report entry.
type URLOutcome struct {
	URLTrack
	RankingID string    `json:"ranking_id"`
	Keyword   string    `json:"keyword"`
	TargetURL string    `json:"target_url"`
	Section   *string   `json:"section"`
	CheckedAt time.Time `json:"checked_at"`
}

// URLReport is one element of a URL-tracking batch response.
type URLReport struct {
	ID int64 `json:"id"`
	*URLOutcome
	Error        string `json:"error,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
}

// Ok reports whether the check itself succeeded.
func (r KeywordReport) Ok() bool { return r.Error == "" && r.KeywordOutcome != nil }

// Ok reports whether the check itself succeeded.
func (r URLReport) Ok() bool { return r.Error == "" && r.URLOutcome != nil }

// EventRankingChecked is published once for every persisted check.
const EventRankingChecked = "ranking.checked"

// RankingEvent is the payload of EventRankingChecked.
type RankingEvent struct {
	CheckType CheckType `json:"check_type"`
	RankingID string    `json:"ranking_id"`
	EntityID  int64     `json:"entity_id"`
	Keyword   string    `json:"keyword"`
	Rank      *int      `json:"rank"`
	Section   *string   `json:"section,omitempty"`
	Exposed   bool      `json:"exposed"`
	CheckedAt time.Time `json:"checked_at"`
}
