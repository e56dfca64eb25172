package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// runSession drives one browser through select, process and wait.
func runSession(ctx context.Context, config *Config, datasetID string) SessionResult {
	res := SessionResult{Dataset: datasetID}
	start := time.Now()

	fail := func(err error) SessionResult {
		res.Error = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}

	client, err := newHTTPClient(config.BaseURL, config.Timeout)
	if err != nil {
		return fail(err)
	}

	var list DatasetList
	if err := client.getJSON(ctx, "/api/datasets", &list); err != nil {
		return fail(fmt.Errorf("list datasets: %w", err))
	}
	if !hasDataset(list, datasetID) {
		return fail(fmt.Errorf("dataset %q not offered", datasetID))
	}

	resp, err := client.Post(ctx, "/api/dataset", map[string]string{"dataset": datasetID})
	if err != nil {
		return fail(fmt.Errorf("select dataset: %w", err))
	}
	var selected State
	if err := decode(resp, StatusOK, &selected); err != nil {
		return fail(fmt.Errorf("select dataset: %w", err))
	}
	res.Session = selected.State.Session

	resp, err = client.Post(ctx, "/api/process", nil)
	if err != nil {
		return fail(fmt.Errorf("process: %w", err))
	}
	var ack ProcessAck
	if err := decode(resp, StatusAccepted, &ack); err != nil {
		return fail(fmt.Errorf("process: %w", err))
	}

	if !config.SkipConflict {
		resp, err = client.Post(ctx, "/api/process", nil)
		if err != nil {
			return fail(fmt.Errorf("second process: %w", err))
		}
		err = decode(resp, StatusConflict, nil)
		var se *StatusError
		switch {
		case err == nil:
			res.Conflict = true
		case errors.As(err, &se) && se.Code == StatusAccepted:
			// The first run already finished; follow the new one.
			if err := json.Unmarshal([]byte(se.Body), &ack); err != nil {
				return fail(fmt.Errorf("second process: %w", err))
			}
		default:
			return fail(fmt.Errorf("second process: %w", err))
		}
	}

	final, err := waitForResult(ctx, client, config, ack.Generation)
	if err != nil {
		return fail(err)
	}
	if err := verifyState(final, datasetID); err != nil {
		return fail(err)
	}
	res.Class = final.State.Prediction.Class
	res.EventCount = final.View.EventCount

	if !config.SkipPNG {
		resp, err := client.Get(ctx, "/api/visualization.png")
		if err != nil {
			return fail(fmt.Errorf("png export: %w", err))
		}
		if err := decode(resp, StatusOK, nil); err != nil {
			return fail(fmt.Errorf("png export: %w", err))
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

// waitForResult polls the state until generation gen reaches the result
// phase.
func waitForResult(ctx context.Context, client *HTTPClient, config *Config, gen uint64) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RunTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollEvery)
	defer ticker.Stop()

	for {
		var st State
		if err := client.getJSON(ctx, "/api/state", &st); err != nil {
			return State{}, fmt.Errorf("poll state: %w", err)
		}
		if st.State.Generation != gen {
			return State{}, fmt.Errorf("generation moved from %d to %d", gen, st.State.Generation)
		}
		if st.State.LastError != "" {
			return State{}, fmt.Errorf("run aborted: %s", st.State.LastError)
		}
		if st.State.Phase == "result" {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return State{}, fmt.Errorf("waiting for result: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func hasDataset(list DatasetList, id string) bool {
	for _, c := range list.Datasets {
		if c.ID == id {
			return true
		}
	}
	return false
}
