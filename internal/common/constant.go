// Package common contains shared constants and sentinel errors used across
// otpvault components.
package common

// AccessTokenHeaderName is the HTTP header carrying the bearer token on
// outbound requests to the remote account source.
const AccessTokenHeaderName = "Authorization"

// CurrentUserID is the fixed sentinel identifier of the single offline
// authentication record. There is exactly one "current user" at a time.
const CurrentUserID = "current"
