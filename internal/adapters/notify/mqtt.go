package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// MQTT connection constants.
const (
	mqttConnectRetryInterval = 2 * time.Second
	mqttMaxReconnectInterval = 30 * time.Second
	mqttConnectTimeout       = 10 * time.Second
)

// MQTTChannel publishes fall alerts to an MQTT topic.
type MQTTChannel struct {
	broker   string
	clientID string
	topic    string
	qos      byte
	username string
	password string

	client mqtt.Client
	logger logger.Logger
}

// MQTTOption applies a configuration option to the MQTTChannel.
type MQTTOption func(*MQTTChannel)

// WithMQTTTopic sets the alert topic.
func WithMQTTTopic(topic string) MQTTOption {
	return func(c *MQTTChannel) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// WithMQTTQOS sets the publish quality of service level.
func WithMQTTQOS(qos byte) MQTTOption {
	return func(c *MQTTChannel) {
		if qos <= 2 {
			c.qos = qos
		}
	}
}

// WithMQTTCredentials sets the broker username and password.
func WithMQTTCredentials(username, password string) MQTTOption {
	return func(c *MQTTChannel) {
		c.username = username
		c.password = password
	}
}

// NewMQTTChannel creates an MQTT alert channel. Connect must be called
// before the channel can deliver.
func NewMQTTChannel(broker, clientID string, opts ...MQTTOption) *MQTTChannel {
	c := &MQTTChannel{
		broker:   broker,
		clientID: clientID,
		topic:    "fall/alerts",
		qos:      1,
		logger:   logger.Get().Named("mqtt"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect establishes the broker connection with auto-reconnect.
func (c *MQTTChannel) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", c.broker))
	opts.SetClientID(c.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(mqttConnectRetryInterval)
	opts.SetMaxReconnectInterval(mqttMaxReconnectInterval)
	if c.username != "" {
		opts.SetUsername(c.username)
		opts.SetPassword(c.password)
	}

	opts.OnConnect = func(mqtt.Client) {
		c.logger.Info(ctx, "mqtt connection established",
			logger.String("broker", c.broker),
			logger.String("clientID", c.clientID),
		)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Warn(ctx, "mqtt connection lost, will auto-reconnect",
			logger.String("broker", c.broker),
			logger.Error(err),
		)
	}

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("mqtt connect to %s: %w", c.broker, context.DeadlineExceeded)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", c.broker, err)
	}
	return nil
}

// Name identifies the channel.
func (c *MQTTChannel) Name() string { return "mqtt" }

// Send publishes the event as JSON to the alert topic.
func (c *MQTTChannel) Send(ctx context.Context, event model.FallEvent) error {
	if c.client == nil || !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(mqttAlert{
		EventID:    event.EventID,
		EntityID:   event.EntityID,
		TrackID:    event.TrackID,
		Timestamp:  event.DetectedAt.Unix(),
		Confidence: event.Confidence,
	})
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	token := c.client.Publish(c.topic, c.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", c.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", c.topic, ctx.Err())
	}
}

// Close disconnects from the broker.
func (c *MQTTChannel) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// mqttAlert is the wire payload published per alert.
type mqttAlert struct {
	EventID    string  `json:"event_id"`
	EntityID   string  `json:"entity_id"`
	TrackID    int64   `json:"track_id,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}
