// Package client contains the transport and local persistence bootstrap of
// the shop client.
//
// # Overview
//
//  1. Client is the read-only product catalog contract: Products lists the
//     feed, Product fetches one item by id.
//  2. HTTPClient implements Client over the dummyjson-compatible REST API
//     (GET /products?limit=N, GET /products/{id}). Outbound requests can be
//     throttled with a token bucket (WithRateLimit).
//  3. InitDatabase and RunMigrations open the SQLite file, apply the embedded
//     goose migrations and return the kv repository built on top of it.
//
// # Error Handling
//
// Failures are reported with sentinel errors matched by errors.Is:
// ErrNotFound (404), ErrUnavailable (transport failure, 408, 429, 5xx; worth
// retrying), ErrInvalidID (non-positive id, no request made) and
// ErrBadResponse (any other status or an undecodable body).
//
// Caching, retries and request collapsing live one level up, in
// services.CatalogService.
package client
