package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FALL_CONFIG is set
//  3. env (prefix FALL_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FALL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: FALL_ADDR, FALL_QUEUE_SIZE, ...
	// Map env keys like FALL_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FALL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "fall_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values the pipeline cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.KeypointConfidenceFloor <= 0 || c.KeypointConfidenceFloor >= 1:
		return fmt.Errorf("%w: keypoint_confidence_floor must be in (0,1)", ErrInvalidConfig)
	case c.MinKeypoints < 1:
		return fmt.Errorf("%w: min_keypoints must be positive", ErrInvalidConfig)
	case c.DwellMS <= 0:
		return fmt.Errorf("%w: dwell_ms must be positive", ErrInvalidConfig)
	case c.CooldownS <= 0:
		return fmt.Errorf("%w: cooldown_s must be positive", ErrInvalidConfig)
	case c.SilenceTimeoutS <= 0:
		return fmt.Errorf("%w: silence_timeout_s must be positive", ErrInvalidConfig)
	case c.MQTTEnabled && c.MQTTBroker == "":
		return fmt.Errorf("%w: mqtt_broker required when mqtt is enabled", ErrInvalidConfig)
	case c.TelegramEnabled && c.TelegramToken == "":
		return fmt.Errorf("%w: telegram_token required when telegram is enabled", ErrInvalidConfig)
	case c.TelegramEnabled && c.TelegramChatID == 0:
		return fmt.Errorf("%w: telegram_chat_id required when telegram is enabled", ErrInvalidConfig)
	}
	return nil
}
