/*
Package api provides the admin HTTP surface over the token store.

Routes under /api are protected by a bearer token and never expose raw
refresh tokens; records are addressed by salted, derived identifiers
instead. /healthz and /metrics stay unauthenticated for probes and
Prometheus scrapers.
*/
package api
