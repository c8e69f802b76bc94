// Package cache implements the read-through response cache: request-derived
// keys, a TTL that always lands on the daily cutoff, and detached writes.
package cache

import "net/http"

// DeriveKey builds the cache key for a request as {path}/{method}?{query}.
//
// rawQuery is used exactly as received. Requests whose parameters differ only
// in order produce different keys; they are not normalized.
func DeriveKey(path, method, rawQuery string) string {
	return path + "/" + method + "?" + rawQuery
}

// KeyFromRequest derives the key from an inbound request.
func KeyFromRequest(r *http.Request) string {
	return DeriveKey(r.URL.Path, r.Method, r.URL.RawQuery)
}
