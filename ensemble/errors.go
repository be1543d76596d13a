package ensemble

import "errors"

var (
	// ErrAllModelsFailed is returned when every configured model call
	// failed or timed out. Individual call failures are absorbed into
	// zero-confidence candidates; only total failure surfaces.
	ErrAllModelsFailed = errors.New("all models failed")

	// ErrCancelled is returned when the caller cancelled the round.
	ErrCancelled = errors.New("ensemble round cancelled")

	// ErrNoModels is returned when the request names no models. Like an
	// unknown strategy, this is a configuration error and fails before any
	// network call.
	ErrNoModels = errors.New("no models configured")
)
