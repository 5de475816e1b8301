// Package main hosts the rank tracker service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, batch check and ranking history endpoints.
//     A batch request runs to completion inside the request and returns one report per id, in order.
//   - Check pipeline: internal/tracker looks up each keyword (and its site) or tracked URL, asks
//     internal/serp to fetch and parse the results page, appends the observation, then publishes a
//     ranking.checked event. Items run strictly one after another.
//   - Fetch: the Colly-based fetcher in internal/fetcher/colly sends browser-like headers and waits on a
//     per-domain token bucket (internal/policy/ratelimit) before each request. Ad redirect links are
//     resolved with a single non-following request.
//   - Persistence & fanout: rankings go to Postgres when db.dsn is set, otherwise to an in-memory store
//     that can be seeded from db.seed_file. Raw result pages are archived only when storage.backend
//     names a BlobStore (local/GCS, or memory in tests). Events go to Pub/Sub when pubsub.project_id is set.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging;
//     Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: RANKTRACKER_SERVER_PORT, RANKTRACKER_DB_DSN, RANKTRACKER_SERP_REQUESTS_PER_SECOND,
//     storage (RANKTRACKER_STORAGE_*), pubsub (RANKTRACKER_PUBSUB_*), and RANKTRACKER_AUTH_* for API keys.
//   - Run locally: go run ./cmd/ranktracker -config config.yaml
//   - Cron style: go run ./cmd/ranktracker -once checks every active item and prints the reports.
//     The exit status is non-zero when init or the run fails.
package main
