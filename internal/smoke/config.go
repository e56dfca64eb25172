package smoke

import "time"

// Config holds configuration for a smoke run
type Config struct {
	BaseURL      string        // Base URL of the service
	Sessions     int           // Number of simulated browser sessions
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	RunTimeout   time.Duration // Maximum wait for one processing run
	PollEvery    time.Duration // State polling interval
	ReportFile   string        // Output file for the JSON report
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
	RunID        string        // Identifier stamped on logs and the report
	SkipPNG      bool          // Skip the PNG export check
	SkipConflict bool          // Skip the double-trigger check
}

// Card mirrors an entry of GET /api/datasets.
type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Selected bool   `json:"selected"`
}

// DatasetList is the body of GET /api/datasets.
type DatasetList struct {
	Selected string `json:"selected"`
	Datasets []Card `json:"datasets"`
}

// Prediction mirrors the prediction of a snapshot.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Latency    int     `json:"latency"`
	Accuracy   float64 `json:"accuracy"`
}

// State is the body of GET /api/state.
type State struct {
	State struct {
		Session    string      `json:"session"`
		Dataset    string      `json:"dataset"`
		Phase      string      `json:"phase"`
		Generation uint64      `json:"generation"`
		Prediction *Prediction `json:"prediction"`
		LastError  string      `json:"lastError"`
	} `json:"state"`
	View struct {
		EventCount int    `json:"eventCount"`
		Caption    string `json:"caption"`
		Summary    struct {
			Mode     string `json:"mode"`
			Headline string `json:"headline"`
		} `json:"summary"`
	} `json:"view"`
}

// ProcessAck is the body of an accepted POST /api/process.
type ProcessAck struct {
	Status     string `json:"status"`
	Dataset    string `json:"dataset"`
	Generation uint64 `json:"generation"`
}

// SessionResult records the outcome of one simulated session.
type SessionResult struct {
	Dataset    string        `json:"dataset"`
	Session    string        `json:"session"`
	Class      string        `json:"class,omitempty"`
	EventCount int           `json:"eventCount"`
	Conflict   bool          `json:"conflict"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	RunID             string          `json:"runId"`
	SessionsStarted   int             `json:"sessionsStarted"`
	SessionsCompleted int             `json:"sessionsCompleted"`
	SessionsFailed    int             `json:"sessionsFailed"`
	ConflictsSeen     int             `json:"conflictsSeen"`
	StartTime         time.Time       `json:"startTime"`
	EndTime           time.Time       `json:"endTime"`
	Duration          time.Duration   `json:"duration"`
	Results           []SessionResult `json:"results"`
}
