package simfeed

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults checks the detected events against the simulated
// episodes: one event per episode, attributed to the right track.
func verifyResults(config *Config, events []Event, tracks []Track, stats *Stats) error {
	log.Println("Verifying results...")

	expected := config.Tracks * config.Episodes
	if len(events) < expected {
		log.Printf("Warning: detected %d events, expected %d (some may still be in flight)",
			len(events), expected)
	} else if len(events) > expected {
		log.Printf("Warning: detected %d events, expected %d (duplicate alerts?)",
			len(events), expected)
	} else {
		log.Printf("Detected exactly %d events for %d episodes", len(events), expected)
	}

	// Each simulated track should have produced its share of events.
	perTrack := make(map[int64]int)
	for _, ev := range events {
		if ev.Source != "camera" {
			continue
		}
		perTrack[ev.TrackID]++
	}
	for trackID := int64(1); trackID <= int64(config.Tracks); trackID++ {
		if got := perTrack[trackID]; got != config.Episodes {
			log.Printf("Warning: track %d produced %d events, expected %d",
				trackID, got, config.Episodes)
		}
	}

	// Confidence should be populated from the suspect window.
	for _, ev := range events {
		if ev.Confidence <= 0 || ev.Confidence > 1 {
			return fmt.Errorf("event %s has implausible confidence %.3f", ev.EventID, ev.Confidence)
		}
	}

	displayEvents(events, config.Verbose)
	displayTracks(tracks)

	log.Println("Result verification completed")
	return nil
}

// displayEvents shows the detected events, newest first.
func displayEvents(events []Event, verbose bool) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DetectedAt > sorted[j].DetectedAt
	})

	show := 10
	if len(sorted) < show {
		show = len(sorted)
	}
	log.Printf("Most recent %d events:", show)
	for i := 0; i < show; i++ {
		ev := sorted[i]
		log.Printf("   %d. %s [%s] confidence=%.3f at %s",
			i+1, ev.EntityID, ev.Status, ev.Confidence, ev.DetectedAt)
	}

	if verbose && len(sorted) > 0 {
		sum := 0.0
		for _, ev := range sorted {
			sum += ev.Confidence
		}
		log.Printf("Average event confidence: %.3f", sum/float64(len(sorted)))
	}
}

// displayTracks shows the live track state after the run.
func displayTracks(tracks []Track) {
	if len(tracks) == 0 {
		log.Println("No live tracks remain (all evicted after silence)")
		return
	}
	log.Printf("Live tracks: %d", len(tracks))
	for _, tr := range tracks {
		log.Printf("   track %d: phase=%s posture=%s", tr.TrackID, tr.Phase, tr.Posture)
	}
}
