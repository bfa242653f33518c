// Package notify publishes computed condition snapshots to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-health/internal/models"
)

// Publisher delivers condition snapshots.
type Publisher interface {
	Publish(ctx context.Context, snapshot models.ConditionSnapshot) error
	Close()
}

// NopPublisher drops every snapshot. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.ConditionSnapshot) error { return nil }
func (NopPublisher) Close()                                                  {}

const (
	qosAtLeastOnce = 1
	connectTimeout = 10 * time.Second
	quiesceMillis  = 250
)

// MQTTPublisher publishes snapshots as retained JSON messages on
// <prefix>/<vehicleId>/condition.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, cfg.TopicPrefix), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic returns the topic a vehicle's snapshots are published on.
func (p *MQTTPublisher) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/condition", p.prefix, vehicleID)
}

// Publish sends the snapshot and waits for the broker to acknowledge it or
// for ctx to be done.
func (p *MQTTPublisher) Publish(ctx context.Context, snapshot models.ConditionSnapshot) error {
	if snapshot.VehicleID == "" {
		return errors.New("snapshot has no vehicle ID")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := p.client.Publish(p.Topic(snapshot.VehicleID), qosAtLeastOnce, true, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(quiesceMillis)
}
