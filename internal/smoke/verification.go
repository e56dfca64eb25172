package smoke

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Verification errors.
var (
	ErrNoPrediction  = errors.New("no prediction in result")
	ErrNoEvents      = errors.New("no events in result")
	ErrWrongDataset  = errors.New("result for wrong dataset")
	ErrOutOfRange    = errors.New("prediction value out of range")
	ErrCaptionFormat = errors.New("caption does not match event count")
)

// verifyState checks a finished run for datasetID.
func verifyState(st State, datasetID string) error {
	if st.State.Dataset != datasetID {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongDataset, st.State.Dataset, datasetID)
	}
	p := st.State.Prediction
	if p == nil || p.Class == "" {
		return ErrNoPrediction
	}
	if p.Confidence < 0 || p.Confidence > 1 || p.Accuracy < 0 || p.Accuracy > 1 || p.Latency < 0 {
		return fmt.Errorf("%w: %+v", ErrOutOfRange, *p)
	}
	if st.View.EventCount == 0 {
		return ErrNoEvents
	}
	if !strings.HasPrefix(st.View.Caption, strconv.Itoa(st.View.EventCount)+" events | ") {
		return fmt.Errorf("%w: %q", ErrCaptionFormat, st.View.Caption)
	}
	return nil
}

// summarize folds session results into stats.
func summarize(stats *Stats, results []SessionResult) {
	stats.Results = results
	for _, r := range results {
		stats.SessionsStarted++
		if r.Conflict {
			stats.ConflictsSeen++
		}
		if r.Error != "" {
			stats.SessionsFailed++
			continue
		}
		stats.SessionsCompleted++
	}
}
