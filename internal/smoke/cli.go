package smoke

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/snnvision/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log records to the console and to logFile.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (string, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "smoke_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logFile, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	os.Stdout.WriteString(`SNN Vision Smoke Tool
=====================

Drives simulated browser sessions against a running dashboard: each one
selects a dataset, triggers processing, checks that a second trigger is
refused while busy, waits for the result and verifies it.

Usage:
  go run cmd/smoke/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of simulated sessions (default 8)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -run-timeout duration
        Maximum wait for one processing run (default 10s)
  -poll duration
        State polling interval (default 100ms)
  -report string
        Output file for the JSON report (default: smoke_report_TIMESTAMP.json)
  -log string
        Log file for test output (default: smoke_log_TIMESTAMP.log)
  -skip-png
        Skip the PNG export check
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke test with default settings
  go run cmd/smoke/main.go

  # Many sessions against another host
  go run cmd/smoke/main.go -sessions 100 -workers 16 -url http://localhost:8080
`)
}
