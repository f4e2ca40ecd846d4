// Package api hosts the read-only operations server. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/v1/runs and /api/v1/runs/{id} for crawl-run history via the
//     RunRepository interface.
//
// The server never triggers crawls; scheduling stays with the cron runner.
package api
