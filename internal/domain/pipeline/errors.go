package pipeline

import "errors"

// ErrAlreadyProcessing is returned by Trigger while a run is in flight.
var ErrAlreadyProcessing = errors.New("processing already in progress")
