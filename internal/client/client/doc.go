// Package client is a Go client for the keuthlie HTTP API.
//
// Every call returns either the decoded payload or an *APIError carrying the
// server's error code. APIError matches the sentinels in internal/common, so
// callers can write
//
//	if errors.Is(err, common.ErrInvalidToken) { ... }
//
// Transport failures are wrapped with ErrUnavailable.
//
// InitDatabase opens the CLI's local SQLite store.
package client
