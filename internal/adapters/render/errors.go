package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrNoEvents      = errors.New("no events to render")
	ErrUnknownFormat = errors.New("unknown image format")
)
