// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Pool is the subset of pgxpool.Pool the store relies on.
type Pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

var (
	_ rank.EntityStore  = (*Store)(nil)
	_ rank.RankingStore = (*Store)(nil)
)

// Store reads sites, keywords and tracked URLs, and appends ranking rows.
type Store struct {
	pool Pool
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(pool Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// GetSite loads a site by id.
func (s *Store) GetSite(ctx context.Context, id int64) (rank.Site, error) {
	const query = `SELECT id, name, url FROM sites WHERE id = $1`
	var site rank.Site
	err := s.pool.QueryRow(ctx, query, id).Scan(&site.ID, &site.Name, &site.URL)
	if err != nil {
		return rank.Site{}, lookupErr("site", id, err)
	}
	return site, nil
}

// GetKeyword loads a keyword by id.
func (s *Store) GetKeyword(ctx context.Context, id int64) (rank.Keyword, error) {
	const query = `SELECT id, site_id, keyword, is_active FROM keywords WHERE id = $1`
	var kw rank.Keyword
	err := s.pool.QueryRow(ctx, query, id).Scan(&kw.ID, &kw.SiteID, &kw.Keyword, &kw.IsActive)
	if err != nil {
		return rank.Keyword{}, lookupErr("keyword", id, err)
	}
	return kw, nil
}

// GetTrackedURL loads a tracked URL by id.
func (s *Store) GetTrackedURL(ctx context.Context, id int64) (rank.TrackedURL, error) {
	const query = `
		SELECT id, keyword, target_url, section, COALESCE(memo, ''), is_active
		FROM tracked_urls
		WHERE id = $1`
	var tu rank.TrackedURL
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&tu.ID,
		&tu.Keyword,
		&tu.TargetURL,
		&tu.Section,
		&tu.Memo,
		&tu.IsActive,
	)
	if err != nil {
		return rank.TrackedURL{}, lookupErr("tracked url", id, err)
	}
	return tu, nil
}

// ListActiveKeywordIDs returns the ids of active keywords in id order.
func (s *Store) ListActiveKeywordIDs(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, `SELECT id FROM keywords WHERE is_active ORDER BY id`)
}

// ListActiveTrackedURLIDs returns the ids of active tracked URLs in id order.
func (s *Store) ListActiveTrackedURLIDs(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, `SELECT id FROM tracked_urls WHERE is_active ORDER BY id`)
}

func (s *Store) listIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// AppendRanking inserts one site-rank observation.
func (s *Store) AppendRanking(ctx context.Context, row rank.Ranking) error {
	const query = `
INSERT INTO rankings (
	id,
	keyword_id,
	rank_position,
	search_type,
	result_url,
	result_title,
	checked_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`
	_, err := s.pool.Exec(ctx, query,
		row.ID,
		row.KeywordID,
		row.RankPosition,
		string(row.SearchType),
		row.ResultURL,
		row.ResultTitle,
		row.CheckedAt,
	)
	if err != nil {
		return &rank.PersistError{Table: "rankings", Err: err}
	}
	return nil
}

// AppendURLRanking inserts one URL-tracking observation.
func (s *Store) AppendURLRanking(ctx context.Context, row rank.URLRanking) error {
	const query = `
INSERT INTO url_rankings (
	id,
	tracked_url_id,
	rank_position,
	section_name,
	section_rank,
	is_exposed,
	section_exists,
	checked_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`
	_, err := s.pool.Exec(ctx, query,
		row.ID,
		row.TrackedURLID,
		row.RankPosition,
		row.SectionName,
		row.SectionRank,
		row.IsExposed,
		row.SectionExists,
		row.CheckedAt,
	)
	if err != nil {
		return &rank.PersistError{Table: "url_rankings", Err: err}
	}
	return nil
}

// ListRankings returns up to limit rows for a keyword, newest first.
func (s *Store) ListRankings(ctx context.Context, keywordID int64, limit int) ([]rank.Ranking, error) {
	const query = `
		SELECT id, keyword_id, rank_position, search_type, result_url, result_title, checked_at
		FROM rankings
		WHERE keyword_id = $1
		ORDER BY checked_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, keywordID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	defer rows.Close()

	out := []rank.Ranking{}
	for rows.Next() {
		var (
			r     rank.Ranking
			scope string
		)
		if err := rows.Scan(
			&r.ID,
			&r.KeywordID,
			&r.RankPosition,
			&scope,
			&r.ResultURL,
			&r.ResultTitle,
			&r.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		r.SearchType = rank.SearchScope(scope)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rankings: %w", err)
	}
	return out, nil
}

// ListURLRankings returns up to limit rows for a tracked URL, newest first.
func (s *Store) ListURLRankings(ctx context.Context, trackedURLID int64, limit int) ([]rank.URLRanking, error) {
	const query = `
		SELECT id, tracked_url_id, rank_position, section_name, section_rank, is_exposed, section_exists, checked_at
		FROM url_rankings
		WHERE tracked_url_id = $1
		ORDER BY checked_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, trackedURLID, limit)
	if err != nil {
		return nil, fmt.Errorf("list url rankings: %w", err)
	}
	defer rows.Close()

	out := []rank.URLRanking{}
	for rows.Next() {
		var r rank.URLRanking
		if err := rows.Scan(
			&r.ID,
			&r.TrackedURLID,
			&r.RankPosition,
			&r.SectionName,
			&r.SectionRank,
			&r.IsExposed,
			&r.SectionExists,
			&r.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("scan url ranking row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url rankings: %w", err)
	}
	return out, nil
}

func lookupErr(entity string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return rank.NotFound(entity, id)
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}
