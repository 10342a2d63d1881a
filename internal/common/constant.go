// Package common contains shared constants and sentinel errors used across
// chainkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token issued after a successful sign-in.
const AccessTokenHeaderName = "access_token"
