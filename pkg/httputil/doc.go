// Package httputil fetches remote scene documents and GeoJSON payloads.
//
// # Overview
//
//   - [Fetcher]: GET with caching through a [cache.Cache] and retries
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// Only failures wrapped in [RetryableError] are retried: network errors,
// 5xx responses and 429 rate limits. A 404 is reported immediately as
// [ErrNotFound].
//
// # Caching
//
// Responses are stored under keys produced by a [cache.Keyer], so a scene
// fetched once is served from the file cache (CLI) or Redis (server) until
// its TTL lapses.
package httputil
