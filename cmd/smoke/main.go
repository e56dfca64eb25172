package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/snnvision/internal/smoke"
)

// Default configuration constants.
const (
	defaultSessions    = 8
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions   = flag.Int("sessions", defaultSessions, "Number of simulated sessions")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		runTimeout = flag.Duration("run-timeout", smoke.DefaultRunTimeout, "Maximum wait for one processing run")
		poll       = flag.Duration("poll", smoke.DefaultPollInterval, "State polling interval")
		reportFile = flag.String("report", "", "Output file for the JSON report (default: smoke_report_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: smoke_log_TIMESTAMP.log)")
		skipPNG    = flag.Bool("skip-png", false, "Skip the PNG export check")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	logPath, err := smoke.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL:    *baseURL,
		Sessions:   *sessions,
		Workers:    *workers,
		Timeout:    *timeout,
		RunTimeout: *runTimeout,
		PollEvery:  *poll,
		ReportFile: *reportFile,
		LogFile:    logPath,
		SkipPNG:    *skipPNG,
		Verbose:    *verbose,
	}

	if _, err := smoke.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
