package smoke

import "time"

// HTTP status code constants.
const (
	StatusOK          = 200
	StatusAccepted    = 202
	StatusConflict    = 409
	StatusUnavailable = 503
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultRunTimeout    = 10 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
	PercentageMultiplier = 100
)
