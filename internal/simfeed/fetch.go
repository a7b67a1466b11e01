package simfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// fetchEvents retrieves the most recent fall events from the service.
func fetchEvents(ctx context.Context, config *Config, limit int, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "fetching fall events", logger.Int("limit", limit))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/events?limit=" + strconv.Itoa(limit)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read events response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("events request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	stats.EventsDetected = len(events)
	logger.Get().Info(ctx, "fetched events", logger.Int("count", len(events)))
	return events, nil
}

// fetchTracks retrieves the live track state from the service.
func fetchTracks(ctx context.Context, config *Config) ([]Track, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/tracks"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("tracks request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tracks []Track
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return tracks, nil
}
