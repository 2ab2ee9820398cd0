package videos

import "errors"

var (
	// ErrProberUnavailable indicates no media prober is configured.
	ErrProberUnavailable = errors.New("media prober unavailable")
	// ErrNoDuration indicates the prober could not determine a duration.
	ErrNoDuration = errors.New("media duration unavailable")
)
