// Package telemetry ingests odometer readings published by vehicle trackers
// over MQTT and feeds them into the fleet service.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
)

// OdometerTopic matches per-vehicle odometer publications, e.g.
// fleet/3f2a.../odometer. The vehicle id in the payload is authoritative.
const OdometerTopic = "fleet/+/odometer"

// OdometerReading is the wire payload published by trackers.
type OdometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	OdoKm      int64     `json:"odo_km"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ingestor subscribes to odometer publications and applies them to the
// service. Stale readings are dropped, never treated as fatal: trackers
// replay their queues after connectivity gaps and old samples are expected.
type Ingestor struct {
	client  mqtt.Client
	service *fleet.Service
}

// NewIngestor connects to the broker and subscribes to the odometer topic.
func NewIngestor(broker, clientID string, service *fleet.Service) (*Ingestor, error) {
	ing := &Ingestor{service: service}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			if token := c.Subscribe(OdometerTopic, 1, ing.handleMessage); token.Wait() && token.Error() != nil {
				log.WithError(token.Error()).Error("Failed to subscribe to odometer topic")
			}
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", broker, token.Error())
	}

	ing.client = client
	log.WithFields(log.Fields{
		"broker": broker,
		"topic":  OdometerTopic,
	}).Info("Odometer ingest connected")
	return ing, nil
}

func (i *Ingestor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading OdometerReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed odometer payload")
		return
	}

	if err := i.Apply(context.Background(), reading); err != nil {
		entry := log.WithError(err).WithFields(log.Fields{
			"vehicle_id": reading.VehicleID,
			"odo_km":     reading.OdoKm,
		})
		switch {
		case errors.Is(err, fleet.ErrRegression):
			entry.Debug("Dropping stale odometer reading")
		case errors.Is(err, fleet.ErrNotFound):
			entry.Warn("Odometer reading for unknown vehicle")
		default:
			entry.Warn("Failed to apply odometer reading")
		}
	}
}

// Apply pushes a single reading into the service.
func (i *Ingestor) Apply(ctx context.Context, reading OdometerReading) error {
	if reading.VehicleID == "" {
		return fmt.Errorf("%w: vehicle id is required", fleet.ErrValidation)
	}
	return i.service.UpdateOdometer(ctx, reading.VehicleID, reading.OdoKm)
}

// Close disconnects from the broker.
func (i *Ingestor) Close() {
	if i.client != nil {
		i.client.Disconnect(250)
	}
}
