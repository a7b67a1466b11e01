// Package ingest consumes fall reports published by wearable devices
// over MQTT and feeds them into the alert pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// MQTT subscriber constants.
const (
	connectRetryInterval = 2 * time.Second
	maxReconnectInterval = 30 * time.Second
	connectTimeout       = 10 * time.Second
	subscribeTimeout     = 5 * time.Second
)

// Alerter delivers device fall events; the dispatcher's cooldown gate
// deduplicates repeated reports from the same device.
type Alerter interface {
	Dispatch(ctx context.Context, event model.FallEvent) notify.DispatchResult
}

// deviceReport is the wire shape ESP32 wearables publish.
type deviceReport struct {
	DeviceID     string  `json:"device_id"`
	FallDetected bool    `json:"fall_detected"`
	Timestamp    int64   `json:"timestamp"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	HasGPSFix    bool    `json:"has_gps_fix"`
}

// MQTTSource subscribes to the device topic and dispatches confirmed
// device falls.
type MQTTSource struct {
	broker   string
	clientID string
	topic    string
	qos      byte
	username string
	password string

	alerter Alerter
	client  mqtt.Client
	logger  logger.Logger
}

// Option applies a configuration option to the MQTTSource.
type Option func(*MQTTSource)

// WithTopic sets the device report topic.
func WithTopic(topic string) Option {
	return func(s *MQTTSource) {
		if topic != "" {
			s.topic = topic
		}
	}
}

// WithQOS sets the subscription quality of service level.
func WithQOS(qos byte) Option {
	return func(s *MQTTSource) {
		if qos <= 2 {
			s.qos = qos
		}
	}
}

// WithCredentials sets the broker username and password.
func WithCredentials(username, password string) Option {
	return func(s *MQTTSource) {
		s.username = username
		s.password = password
	}
}

// NewMQTTSource creates a device report subscriber.
func NewMQTTSource(broker, clientID string, alerter Alerter, opts ...Option) *MQTTSource {
	s := &MQTTSource{
		broker:   broker,
		clientID: clientID,
		topic:    "fall/devices",
		qos:      1,
		alerter:  alerter,
		logger:   logger.Get().Named("device-ingest"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start connects and subscribes. Message handling runs on paho's
// callback goroutines until Close.
func (s *MQTTSource) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", s.broker))
	opts.SetClientID(s.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)
	if s.username != "" {
		opts.SetUsername(s.username)
		opts.SetPassword(s.password)
	}

	opts.OnConnect = func(c mqtt.Client) {
		// Re-subscribe on every (re)connect.
		token := c.Subscribe(s.topic, s.qos, s.handle)
		if !token.WaitTimeout(subscribeTimeout) || token.Error() != nil {
			s.logger.Error(ctx, "device topic subscribe failed",
				logger.String("topic", s.topic),
				logger.Error(token.Error()),
			)
			return
		}
		s.logger.Info(ctx, "subscribed to device topic",
			logger.String("broker", s.broker),
			logger.String("topic", s.topic),
		)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.logger.Warn(ctx, "device broker connection lost, will auto-reconnect",
			logger.Error(err),
		)
	}

	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("device broker connect to %s: %w", s.broker, context.DeadlineExceeded)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("device broker connect to %s: %w", s.broker, err)
	}
	return nil
}

// handle parses one device report and dispatches it when it carries a
// fall. A malformed payload is logged and dropped; one bad device must
// not affect the rest of the pipeline.
func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	ctx := context.Background()

	var report deviceReport
	if err := json.Unmarshal(msg.Payload(), &report); err != nil {
		metrics.RecordDeviceReportError()
		s.logger.Warn(ctx, "malformed device report",
			logger.String("topic", msg.Topic()),
			logger.Error(err),
		)
		return
	}

	metrics.RecordDeviceReport()

	if report.DeviceID == "" || !report.FallDetected {
		return
	}

	detectedAt := time.Now()
	if report.Timestamp > 0 {
		detectedAt = time.Unix(report.Timestamp, 0)
	}

	s.alerter.Dispatch(ctx, model.FallEvent{
		EventID:    uuid.NewString(),
		Source:     model.SourceDevice,
		EntityID:   report.DeviceID,
		DetectedAt: detectedAt,
		Confidence: 1.0,
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		HasGPSFix:  report.HasGPSFix,
	})
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}
