// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file/env.
// - Detection thresholds are policy constants, configured not hardcoded.
// - External errors are wrapped via this package's error kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds each worker's observation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of observation workers.
	WorkerCount int `koanf:"worker_count"`

	// Classifier thresholds.
	KeypointConfidenceFloor float64 `koanf:"keypoint_confidence_floor"`
	MinKeypoints            int     `koanf:"min_keypoints"`
	FlatAspectRatio         float64 `koanf:"flat_aspect_ratio"`
	DropVelocity            float64 `koanf:"drop_velocity"`

	// State machine durations, in milliseconds/seconds of frame time.
	DwellMS          int `koanf:"dwell_ms"`
	CooldownS        int `koanf:"cooldown_s"`
	SilenceTimeoutS  int `koanf:"silence_timeout_s"`
	SweepIntervalS   int `koanf:"sweep_interval_s"`
	HistorySize      int `koanf:"history_size"`
	MaxEventsLimit   int `koanf:"max_events_limit"`
	ChannelTimeoutMS int `koanf:"channel_timeout_ms"`

	// Alert gate for device-originated reports.
	DedupeSize        int `koanf:"dedupe_size"`
	DeviceCooldownMin int `koanf:"device_cooldown_min"`

	// SQLite event store. Empty path selects the in-memory store.
	DBPath string `koanf:"db_path"`

	// MQTT alert channel and device ingest.
	MQTTEnabled     bool   `koanf:"mqtt_enabled"`
	MQTTBroker      string `koanf:"mqtt_broker"`
	MQTTClientID    string `koanf:"mqtt_client_id"`
	MQTTTopic       string `koanf:"mqtt_topic"`
	MQTTDeviceTopic string `koanf:"mqtt_device_topic"`
	MQTTQOS         int    `koanf:"mqtt_qos"`
	MQTTUsername    string `koanf:"mqtt_username"`
	MQTTPassword    string `koanf:"mqtt_password"`

	// Telegram alert channel.
	TelegramEnabled bool   `koanf:"telegram_enabled"`
	TelegramToken   string `koanf:"telegram_token"`
	TelegramChatID  int64  `koanf:"telegram_chat_id"`
}

// New creates a Config populated with defaults. The detection defaults
// are illustrative starting points; deployments tune them per camera.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		QueueSize:               4096,
		WorkerCount:             runtime.NumCPU(),
		KeypointConfidenceFloor: 0.3,
		MinKeypoints:            4,
		FlatAspectRatio:         1.4,
		DropVelocity:            0.25,
		DwellMS:                 1500,
		CooldownS:               30,
		SilenceTimeoutS:         10,
		SweepIntervalS:          2,
		HistorySize:             30,
		MaxEventsLimit:          100,
		ChannelTimeoutMS:        3000,
		DedupeSize:              10000,
		DeviceCooldownMin:       5,
		DBPath:                  "fall_events.db",
		MQTTEnabled:             false,
		MQTTBroker:              "localhost:1883",
		MQTTClientID:            "fall-detector",
		MQTTTopic:               "fall/alerts",
		MQTTDeviceTopic:         "fall/devices",
		MQTTQOS:                 1,
		TelegramEnabled:         false,
	}
}
