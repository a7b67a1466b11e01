package simfeed

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simfeed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the sim-feed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Fall Detection Sim Feed
=======================

Plays synthetic stand -> fall -> lie -> recover pose sequences against a
running fall detection service and verifies the detected events.

Usage:
  go run cmd/sim-feed/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -tracks int
        Number of simulated people (default 4)
  -episodes int
        Fall episodes per track (default 2)
  -fps int
        Simulated camera frame rate (default 10)
  -workers int
        Number of concurrent submit workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for the generated script (default: sim_script_TIMESTAMP.json)
  -log string
        Log file for run output (default: simfeed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/sim-feed/main.go

  # Simulate a crowded scene
  go run cmd/sim-feed/main.go -tracks 20 -episodes 3 -workers 8

  # Run against a remote deployment
  go run cmd/sim-feed/main.go -url http://fall-detector:9080 -verbose
`)
}
