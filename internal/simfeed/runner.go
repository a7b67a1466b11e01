package simfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete simulated feed.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting fall detection sim feed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("tracks", config.Tracks),
		logger.Int("episodes", config.Episodes),
		logger.Int("fps", config.FPS),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate fall scripts
	scripts, err := generateScripts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("script generation failed: %w", err)
	}

	// Step 3: Play the scripts against the service
	if err := submitScripts(ctx, config, scripts, stats); err != nil {
		return fmt.Errorf("observation submission failed: %w", err)
	}

	// Step 4: Wait for the pipeline to drain
	logger.Get().Info(ctx, "waiting for observations to be processed")
	time.Sleep(ProcessingDelay)

	// Step 5: Fetch the detected events
	limit := config.Tracks*config.Episodes + config.Tracks
	events, err := fetchEvents(ctx, config, limit, stats)
	if err != nil {
		return fmt.Errorf("event retrieval failed: %w", err)
	}

	// Step 6: Fetch live track state
	tracks, err := fetchTracks(ctx, config)
	if err != nil {
		return fmt.Errorf("track retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, events, tracks, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save the generated script to file
	if err := saveScriptsToFile(ctx, config, scripts); err != nil {
		logger.Get().Warn(ctx, "failed to save scripts to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "sim feed completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveScriptsToFile saves the generated scripts to a JSON file.
func saveScriptsToFile(ctx context.Context, config *Config, scripts []Script) error {
	if len(scripts) == 0 {
		return fmt.Errorf("no scripts to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "sim_script_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scripts: %w", err)
	}
	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "scripts saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, obsPerSecond float64

	if stats.ObservationsSubmitted > 0 {
		acceptRate = float64(stats.ObservationsAccepted) / float64(stats.ObservationsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		obsPerSecond = float64(stats.ObservationsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("observationsGenerated", stats.ObservationsGenerated),
		logger.Int("observationsSubmitted", stats.ObservationsSubmitted),
		logger.Int("observationsAccepted", stats.ObservationsAccepted),
		logger.Int("observationsRejected", stats.ObservationsRejected),
		logger.Int("observationsFailed", stats.ObservationsFailed),
		logger.Int("episodesSimulated", stats.EpisodesSimulated),
		logger.Int("eventsDetected", stats.EventsDetected),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("observationsPerSecond", obsPerSecond))
}
