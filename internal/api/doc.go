// Package api hosts the HTTP server, middleware, and REST handlers for the
// rank tracker. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/rankings/keywords/check and /v1/rankings/tracked-urls/check run
//     a batch of checks and return one report per id, in order.
//   - POST /v1/rankings/.../check-active runs the batch over every active id.
//   - GET /v1/keywords/{id}/rankings and /v1/tracked-urls/{id}/rankings read
//     the stored history, newest first.
package api
