package pubg

import "errors"

// Error taxonomy for the PUBG API. Callers classify with errors.Is.
var (
	// ErrTransient covers network failures, 5xx and upstream 429. Retried
	// inside the client; surfaces only once the retry budget is spent.
	ErrTransient = errors.New("pubg: transient failure")
	// ErrRateLimited is an upstream 429. Always wrapped together with ErrTransient.
	ErrRateLimited = errors.New("pubg: rate limited upstream")
	// ErrAuth means the API key was rejected. Fatal, never retried.
	ErrAuth = errors.New("pubg: authentication failed")
	// ErrPlayerNotFound means the API has no player with the given handle or id.
	ErrPlayerNotFound = errors.New("pubg: player not found")
	// ErrMatchGone means the match no longer exists upstream. Permanent.
	ErrMatchGone = errors.New("pubg: match not found")
	// ErrMalformedResponse is a response that does not match the documented schema.
	ErrMalformedResponse = errors.New("pubg: malformed response")
	// ErrTelemetryUnavailable means the telemetry asset could not be fetched or
	// decoded. Recoverable: the summary is emitted without combat sections.
	ErrTelemetryUnavailable = errors.New("pubg: telemetry unavailable")
	// ErrUnexpectedStatus is any other non-success HTTP status.
	ErrUnexpectedStatus = errors.New("pubg: unexpected status")

	errNotFound = errors.New("pubg: resource not found")
)

// IsTransient reports whether err is worth retrying later
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsFatal reports whether err must stop the monitor entirely
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsPermanent reports whether a match-level failure will never succeed on retry
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMatchGone)
}
