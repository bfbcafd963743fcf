package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/models"
)

const topicPrefix = "fleetfuel/events/"

// Topic returns the MQTT topic an accepted event of the given category is
// published on.
func Topic(category models.Category) string {
	return topicPrefix + string(category)
}

// MQTTNotifier publishes accepted refueling events for dashboards and
// other read-side consumers. Publishing is best-effort: a broker failure
// is logged and never surfaces to the submission.
type MQTTNotifier struct {
	client  mqtt.Client
	timeout time.Duration
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, errors.New("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}

	return &MQTTNotifier{client: client, timeout: 2 * time.Second}, nil
}

// EventAccepted publishes a recorded event on its category topic.
func (n *MQTTNotifier) EventAccepted(event models.RefuelingEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event for publish")
		return
	}

	topic := Topic(event.Category)
	token := n.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(n.timeout) {
		log.WithField("topic", topic).Warn("Event publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("Failed to publish event")
	}
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
