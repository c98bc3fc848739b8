// Package docevents publishes document lifecycle events
// (document.ingested, document.evicted) over RabbitMQ, the
// SPEC_FULL.md DOMAIN STACK's binding for streadway/amqp. These
// events are fire-and-forget notifications for external consumers
// (reindexing jobs, audit trails); the core's own answer path never
// depends on them.
package docevents

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const exchangeName = "document.lifecycle"

// Event is the published message body.
type Event struct {
	Type      string    `json:"type"`
	DocID     string    `json:"doc_id"`
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher wraps a single AMQP channel bound to a topic exchange.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Connect(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("docevents: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("docevents: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("docevents: declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) publish(routingKey string, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("docevents: marshal event: %w", err)
	}
	return p.ch.Publish(exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   ev.Timestamp,
	})
}

// Ingested announces that a document finished ingestion and indexing.
func (p *Publisher) Ingested(docID, url string, at time.Time) error {
	return p.publish("document.ingested", Event{Type: "document.ingested", DocID: docID, URL: url, Timestamp: at})
}

// Evicted announces that a document's vectors were removed from the
// index.
func (p *Publisher) Evicted(docID string, at time.Time) error {
	return p.publish("document.evicted", Event{Type: "document.evicted", DocID: docID, Timestamp: at})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
