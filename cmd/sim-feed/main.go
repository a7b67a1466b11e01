package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/simfeed"
)

// Default configuration constants.
const (
	defaultTracks   = 4
	defaultEpisodes = 2
	defaultFPS      = 10
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		tracks     = flag.Int("tracks", defaultTracks, "Number of simulated people")
		episodes   = flag.Int("episodes", defaultEpisodes, "Fall episodes per track")
		fps        = flag.Int("fps", defaultFPS, "Simulated camera frame rate")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submit workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the generated script (default: sim_script_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: simfeed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simfeed.ShowHelp()
		return
	}

	// Setup logging
	if err := simfeed.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with an overall run limit
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	// Create run configuration
	config := &simfeed.Config{
		BaseURL:    *baseURL,
		Tracks:     *tracks,
		Episodes:   *episodes,
		FPS:        *fps,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the feed
	if err := simfeed.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Sim feed failed: " + err.Error() + "\n")
		return
	}
}
