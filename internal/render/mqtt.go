package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensor-dashboard/internal/models"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client the publisher needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher pushes each chart descriptor as a retained message on
// <prefix>/<channel>.
type MQTTPublisher struct {
	client Publisher
	prefix string
	qos    byte
	log    *slog.Logger
}

func NewMQTTPublisher(client Publisher, prefix string, qos byte, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTPublisher{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		qos:    qos,
		log:    logger.With(slog.String("component", "mqtt_publisher")),
	}
}

// Connect dials broker and returns a ready client.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", broker, token.Error())
	}
	return c, nil
}

// Topic returns the topic a channel's chart is published on.
func (m *MQTTPublisher) Topic(ch models.Channel) string {
	return m.prefix + "/" + ch.String()
}

func (m *MQTTPublisher) Redraw(charts []models.ChartDescriptor) {
	for _, c := range charts {
		payload, err := json.Marshal(c)
		if err != nil {
			m.log.Error("marshal chart", slog.String("channel", c.Channel.String()), slog.Any("err", err))
			continue
		}

		topic := m.Topic(c.Channel)
		token := m.client.Publish(topic, m.qos, true, payload)
		if !token.WaitTimeout(publishTimeout) {
			m.log.Warn("chart publish timed out", slog.String("topic", topic))
			continue
		}
		if err := token.Error(); err != nil {
			m.log.Warn("chart publish failed", slog.String("topic", topic), slog.Any("err", err))
		}
	}
}
