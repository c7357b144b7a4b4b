// Package publish pushes captured snapshots to a NATS subject so external
// consumers can follow the poll stream without touching the store.
package publish

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

// Envelope is the JSON message published for every captured snapshot.
type Envelope struct {
	Key     string         `json:"key"`
	Clients model.Snapshot `json:"clients"`
}

// Publisher is responsible for publishing snapshots to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes a snapshot envelope to JSON and publishes it.
func (p *Publisher) Publish(key string, snap model.Snapshot) error {
	data, err := json.Marshal(Envelope{Key: key, Clients: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
