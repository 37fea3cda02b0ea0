// Package common contains shared constants and sentinel errors used across
// keuthlie components.
package common

// DefaultIssuerID is the issuer identifier embedded in tokens unless configured otherwise.
const DefaultIssuerID = "keuthlie"

// APIPrefix is the path prefix of every HTTP auth endpoint.
const APIPrefix = "/api/v0/auth"
