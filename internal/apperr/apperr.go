package apperr

import "errors"

// Sentinels for every failure mode the external clients and the statement
// pipeline can surface. Call sites wrap these with fmt.Errorf("...: %w") so
// callers classify with errors.Is.
var (
	// ErrUpstreamUnavailable means the identity provider's discovery
	// document could not be fetched.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrTokenFetchFailed means the client-credentials exchange was rejected.
	ErrTokenFetchFailed = errors.New("token fetch failed")
	// ErrSignOutFailed means the end-session request was rejected.
	ErrSignOutFailed = errors.New("sign out failed")
	// ErrSearchFailed means the user search against the identity provider failed.
	ErrSearchFailed = errors.New("user search failed")
	// ErrUserCreationFailed means the identity provider refused to create the user.
	ErrUserCreationFailed = errors.New("user creation failed")
	// ErrContactLookupFailed means the mailing-list member lookup failed.
	ErrContactLookupFailed = errors.New("contact lookup failed")
	// ErrContactCreationFailed means the mailing-list member creation failed.
	ErrContactCreationFailed = errors.New("contact creation failed")
	// ErrDispatchFailed means a statement could not be persisted to the
	// statement store (transport error or non-2xx response).
	ErrDispatchFailed = errors.New("statement dispatch failed")
	// ErrInvalidDuration means a registration statement was requested for a
	// course whose end date is already in the past.
	ErrInvalidDuration = errors.New("invalid planned duration")

	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
