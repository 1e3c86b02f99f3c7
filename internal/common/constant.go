// Package common contains shared constants and errors used across
// cloudnotes components.
package common

// AuthorizationHeaderName carries the bearer token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the Authorization scheme for access tokens. It is
// matched case-insensitively.
const BearerScheme = "Bearer"

// EnvironmentProduction disables error detail in API responses.
const EnvironmentProduction = "production"
