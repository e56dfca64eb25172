package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/snnvision/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// ErrSessionsFailed is returned when any simulated session failed.
var ErrSessionsFailed = errors.New("smoke sessions failed")

// datasetIDs are cycled across sessions.
var datasetIDs = []string{"dvs-gesture", "n-caltech101"}

// Run executes the complete smoke test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{
		RunID:     config.RunID,
		StartTime: time.Now(),
	}
	log := logger.Named("smoke").With(logger.String("run", config.RunID))

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Duration("runTimeout", config.RunTimeout),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Drive sessions concurrently
	results := driveSessions(ctx, config, log)
	summarize(stats, results)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	// Step 3: Save the report
	if err := saveReport(ctx, config, stats); err != nil {
		log.Warn(ctx, "failed to save report", logger.Error(err))
	}

	displayFinalStats(ctx, log, stats)

	if stats.SessionsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSessionsFailed, stats.SessionsFailed, stats.SessionsStarted)
	}
	log.Info(ctx, "smoke run completed successfully")
	return stats, nil
}

func applyDefaults(config *Config) {
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.Sessions <= 0 {
		config.Sessions = 1
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultRunTimeout
	}
	if config.PollEvery <= 0 {
		config.PollEvery = DefaultPollInterval
	}
}

// driveSessions runs config.Sessions sessions on a bounded worker pool.
func driveSessions(ctx context.Context, config *Config, log logger.Logger) []SessionResult {
	results := make([]SessionResult, config.Sessions)
	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ds := datasetIDs[i%len(datasetIDs)]
				res := runSession(ctx, config, ds)
				results[i] = res
				if res.Error != "" {
					log.Warn(ctx, "session failed",
						logger.Int("index", i),
						logger.String("dataset", ds),
						logger.String("error", res.Error))
					continue
				}
				if config.Verbose {
					log.Info(ctx, "session completed",
						logger.Int("index", i),
						logger.String("dataset", ds),
						logger.String("class", res.Class),
						logger.Duration("elapsed", res.Elapsed))
				}
			}
		}()
	}

feed:
	for i := 0; i < config.Sessions; i++ {
		select {
		case <-ctx.Done():
			for j := i; j < config.Sessions; j++ {
				results[j] = SessionResult{Dataset: datasetIDs[j%len(datasetIDs)], Error: ctx.Err().Error()}
			}
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client, err := newHTTPClient(config.BaseURL, config.Timeout)
	if err != nil {
		return err
	}
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	return decode(resp, StatusOK, nil)
}

// saveReport writes stats as indented JSON.
func saveReport(ctx context.Context, config *Config, stats *Stats) error {
	filename := config.ReportFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "smoke_report_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate float64
	if stats.SessionsStarted > 0 {
		successRate = float64(stats.SessionsCompleted) / float64(stats.SessionsStarted) * PercentageMultiplier
	}

	var total time.Duration
	for _, r := range stats.Results {
		total += r.Elapsed
	}
	var avg time.Duration
	if len(stats.Results) > 0 {
		avg = total / time.Duration(len(stats.Results))
	}

	log.Info(ctx, "final statistics",
		logger.Int("sessionsStarted", stats.SessionsStarted),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("conflictsSeen", stats.ConflictsSeen),
		logger.Duration("duration", stats.Duration),
		logger.Duration("avgSession", avg),
		logger.Float64("successRate", successRate))
}
