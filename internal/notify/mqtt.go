// Package notify publishes ledger activity to MQTT so shop-floor displays can
// follow along without polling.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/config"
	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

const publishTimeout = 5 * time.Second

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Client wraps a connected paho client.
type Client struct {
	client mqtt.Client
	logger *zap.Logger
}

// NewClient connects to the broker in cfg.
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
	return &Client{client: client, logger: logger}, nil
}

// Publish sends payload and waits for the broker acknowledgement.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to topic %s timed out", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect closes the connection, waiting up to 250ms for in-flight work.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// EventMessage is the payload published for each appended event.
type EventMessage struct {
	Type        string   `json:"type"`
	ID          int      `json:"id"`
	RecordedAt  string   `json:"recordedAt"`
	Date        string   `json:"date"`
	Technician  string   `json:"technician"`
	Status      string   `json:"status"`
	DeviceCount int      `json:"deviceCount"`
	Identifiers []string `json:"identifiers"`
}

const eventMessageType = "repair_event"

// EventNotifier publishes appended events to <topic>/<technician>.
type EventNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewEventNotifier(pub Publisher, topic string, qos byte, logger *zap.Logger) *EventNotifier {
	return &EventNotifier{pub: pub, topic: topic, qos: qos, logger: logger}
}

// PublishEvent implements ledger.EventPublisher.
func (n *EventNotifier) PublishEvent(ctx context.Context, event domain.RepairEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := EventMessage{
		Type:        eventMessageType,
		ID:          event.ID,
		RecordedAt:  event.RecordedAt,
		Date:        event.DisplayDate,
		Technician:  event.Technician,
		Status:      event.EventType,
		DeviceCount: event.DeviceCount,
		Identifiers: event.RecordedIdentifiers(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", event.ID, err)
	}

	topic := n.topic + "/" + TopicSegment(event.Technician)
	if err := n.pub.Publish(topic, n.qos, false, payload); err != nil {
		return err
	}
	n.logger.Debug("Event published", zap.String("topic", topic), zap.Int("id", event.ID))
	return nil
}

// TopicSegment makes s safe as a single MQTT topic level.
func TopicSegment(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case '/', '+', '#', ' ':
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}
