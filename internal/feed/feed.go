// Package feed is the realtime change feed: confirmed celebrations are
// published to a topic exchange so every connected client sees new posts
// without polling.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/pkg/metrics"
)

const (
	exchangeName       = "hooray.topic"
	celebrationCreated = "hooray.celebration.created"
)

// Client handles the low-level communication with the message broker.
type Client struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	logger     *slog.Logger
	connClosed chan *amqp.Error
	chanClosed chan *amqp.Error
	closeOnce  sync.Once
	healthy    atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewClient initializes a connection and a channel, enabling Publisher
// Confirms by default so a publish only succeeds once the broker persisted
// the event.
func NewClient(url string, l *slog.Logger) (*Client, error) {
	c, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed broker: %v", err)
	}

	ch, err := c.Channel()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open feed channel: %v", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		c.Close()
		return nil, fmt.Errorf("failed to declare feed exchange: %v", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		c.Close()
		return nil, fmt.Errorf("failed to activate publisher confirms: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:       c,
		channel:    ch,
		logger:     l,
		connClosed: make(chan *amqp.Error, 1),
		chanClosed: make(chan *amqp.Error, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.healthy.Store(true)
	metrics.FeedHealthy.Set(1)

	client.conn.NotifyClose(client.connClosed)
	client.channel.NotifyClose(client.chanClosed)

	go func() {
		select {
		case err := <-client.connClosed:
			client.healthy.Store(false)
			metrics.FeedHealthy.Set(0)
			l.Warn("Feed broker connection closed", "error", err)
		case err := <-client.chanClosed:
			client.healthy.Store(false)
			metrics.FeedHealthy.Set(0)
			l.Warn("Feed broker channel closed", "error", err)
		case <-client.ctx.Done():
			return
		}
	}()

	l.Info("Connected to realtime feed broker", "url", url)
	return client, nil
}

// PublishCelebrationCreated announces a confirmed celebration and blocks
// until the broker acknowledges it.
func (c *Client) PublishCelebrationCreated(ctx context.Context, celebration models.Celebration) error {
	if !c.IsHealthy() {
		return fmt.Errorf("feed broker connection is closed")
	}

	body, err := json.Marshal(celebration)
	if err != nil {
		return fmt.Errorf("failed to serialize celebration: %v", err)
	}

	deferred, err := c.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		exchangeName,
		celebrationCreated,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		c.logger.Error("Failed to publish celebration event", "celebration_id", celebration.ID, "error", err)
		return fmt.Errorf("publish call failed: %v", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deferred.Done():
		if !deferred.Acked() {
			return fmt.Errorf("feed broker NACK received: event not persisted")
		}
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("publisher confirm timeout")
	}
}

// SubscribeNewCelebrations binds a per-client queue to the celebration
// topic and invokes handler for each event. It blocks until the context is
// canceled or the stream breaks.
func (c *Client) SubscribeNewCelebrations(ctx context.Context, clientID string, handler func(models.Celebration)) error {
	queueName := fmt.Sprintf("hooray.feed.%s", clientID)

	q, err := c.channel.QueueDeclare(queueName, false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare feed queue: %v", err)
	}

	if err := c.channel.QueueBind(q.Name, celebrationCreated, exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind feed queue: %v", err)
	}

	msgs, err := c.channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register feed consumer: %v", err)
	}

	c.logger.Info("Subscribed to new celebrations", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("feed stream closed")
			}

			var celebration models.Celebration
			if err := json.Unmarshal(d.Body, &celebration); err != nil {
				c.logger.Error("Failed to unmarshal feed event", "error", err)
				d.Nack(false, false) // drop malformed events
				continue
			}

			handler(celebration)

			if err := d.Ack(false); err != nil {
				c.logger.Error("Failed to ack feed event", "celebration_id", celebration.ID, "error", err)
			}
		}
	}
}

// Close gracefully shuts down the broker resources.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("Terminating feed client")
		c.cancel()
		if c.channel != nil {
			c.channel.Close()
		}
		if c.conn != nil {
			c.conn.Close()
		}
	})
	return nil
}

// IsHealthy returns true if the connection and channel are active.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}
