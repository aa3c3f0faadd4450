// Package events publishes article lifecycle notifications for downstream
// consumers such as cache purgers and search indexers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event types
const (
	ArticleCreated = "article.created"
	ArticleUpdated = "article.updated"
	ArticleDeleted = "article.deleted"
)

// ArticleEvent is the message body sent for every lifecycle change
type ArticleEvent struct {
	Type      string    `json:"type"`
	ArticleID int64     `json:"article_id"`
	Slug      string    `json:"slug,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Publisher delivers article events
type Publisher interface {
	Publish(ctx context.Context, event ArticleEvent) error
	Close()
}

// NATSPublisher publishes events to NATS. The subject is prefix + "." + the
// event's verb, e.g. cms.article.created.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url, prefix string, log zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("editorial-cms"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{
		conn:   nc,
		prefix: prefix,
		log:    log.With().Str("component", "events").Logger(),
	}, nil
}

// Subject returns the NATS subject an event type is published on
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + strings.TrimPrefix(eventType, "article.")
}

// Publish marshals the event and sends it
func (p *NATSPublisher) Publish(ctx context.Context, event ArticleEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Source == "" {
		event.Source = "editorial-cms"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := Subject(p.prefix, event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.log.Debug().
		Str("subject", subject).
		Int64("article_id", event.ArticleID).
		Msg("Published article event")
	return nil
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event ArticleEvent) error { return nil }
func (NoopPublisher) Close()                                                {}
