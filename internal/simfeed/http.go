package simfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitScripts plays the scripts against the service. A script's
// observations are posted strictly in order; different scripts run
// concurrently across the worker pool.
func submitScripts(ctx context.Context, config *Config, scripts []Script, stats *Stats) error {
	total := 0
	for _, s := range scripts {
		total += len(s.Observations)
	}
	log.Printf("Submitting %d observations across %d tracks with %d workers...",
		total, len(scripts), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/observations"

	var (
		accepted  int64
		rejected  int64
		failed    int64
		submitted int64
	)

	scriptChan := make(chan Script, len(scripts))
	var wg sync.WaitGroup

	workers := config.Workers
	if workers > len(scripts) {
		workers = len(scripts)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for script := range scriptChan {
				for _, obs := range script.Observations {
					select {
					case <-ctx.Done():
						return
					default:
					}
					result := submitSingleObservation(ctx, client, url, obs)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}
				}
				if config.Verbose {
					log.Printf("track %d script complete (%d observations)",
						script.TrackID, len(script.Observations))
				}
			}
		}()
	}

	// Send scripts to workers
	go func() {
		defer close(scriptChan)
		for _, script := range scripts {
			select {
			case <-ctx.Done():
				return
			case scriptChan <- script:
			}
		}
	}()

	wg.Wait()

	stats.ObservationsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ObservationsAccepted = int(atomic.LoadInt64(&accepted))
	stats.ObservationsRejected = int(atomic.LoadInt64(&rejected))
	stats.ObservationsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Observation submission completed:
   Accepted: %d
   Rejected: %d
   Failed: %d
`, stats.ObservationsAccepted, stats.ObservationsRejected, stats.ObservationsFailed)

	return nil
}

// submitSingleObservation submits one observation and returns the result.
func submitSingleObservation(ctx context.Context, client *HTTPClient, url string, obs Observation) string {
	resp, err := client.Post(ctx, url, obs)
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Status == "accepted" {
			return "accepted"
		}
		return "accepted"
	case http.StatusTooManyRequests:
		return "rejected"
	default:
		return "failed"
	}
}
