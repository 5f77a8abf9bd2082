package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts   = 5
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// ErrDisconnected is returned by Publish while the broker connection is down.
var ErrDisconnected = errors.New("amqp connection lost")

// AMQPClient publishes and consumes events on a durable direct exchange.
// The queue is bound with its own name as routing key.
//
// When the broker closes the connection or channel, the client drops it and
// redials on a later Publish, waiting an exponential backoff between attempts.
type AMQPClient struct {
	url          string
	exchangeName string
	queueName    string
	dial         func(url string) (*amqp091.Connection, error)
	now          func() time.Time

	mu         sync.Mutex
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	closed     bool
	redials    int
	nextRedial time.Time
}

var _ Publisher = (*AMQPClient)(nil)

func newAMQPClient(url, exchangeName, queueName string) *AMQPClient {
	return &AMQPClient{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		dial:         amqp091.Dial,
		now:          time.Now,
	}
}

// DialAMQP connects to the broker, retrying with exponential backoff, and
// declares the exchange and queue.
func DialAMQP(ctx context.Context, url, exchangeName, queueName string) (*AMQPClient, error) {
	c := newAMQPClient(url, exchangeName, queueName)
	var err error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		c.mu.Lock()
		err = c.connect()
		c.mu.Unlock()
		if err == nil {
			return c, nil
		}
		if attempt == dialAttempts-1 {
			break
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP dial failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, err
}

// connect dials and declares the topology. c.mu must be held.
func (c *AMQPClient) connect() error {
	conn, err := c.dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn, c.channel = conn, channel
	connClosed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	chanClosed := channel.NotifyClose(make(chan *amqp091.Error, 1))
	go c.watch(conn, connClosed, chanClosed)
	return nil
}

// watch forgets conn once the broker closes it or its channel.
func (c *AMQPClient) watch(conn *amqp091.Connection, connClosed, chanClosed <-chan *amqp091.Error) {
	var reason *amqp091.Error
	select {
	case reason = <-connClosed:
	case reason = <-chanClosed:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.conn, c.channel = nil, nil
	conn.Close()

	if reason != nil {
		slog.Warn("AMQP connection lost", "exchange", c.exchangeName, "code", reason.Code, "reason", reason.Reason)
	} else {
		slog.Warn("AMQP connection lost", "exchange", c.exchangeName)
	}
}

func (c *AMQPClient) setup(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ensureChannel redials a lost connection unless the last attempt was too recent.
// c.mu must be held.
func (c *AMQPClient) ensureChannel() error {
	if c.closed {
		return ErrClosed
	}
	if c.channel != nil {
		return nil
	}
	if c.now().Before(c.nextRedial) {
		return ErrDisconnected
	}
	if err := c.connect(); err != nil {
		c.nextRedial = c.now().Add(exponentialBackoff(c.redials))
		c.redials++
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	slog.Info("AMQP connection restored", "exchange", c.exchangeName, "attempts", c.redials+1)
	c.redials = 0
	c.nextRedial = time.Time{}
	return nil
}

// Publish sends e as a persistent JSON message.
func (c *AMQPClient) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureChannel(); err != nil {
		return err
	}
	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    e.At,
			Type:         string(e.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "Published event", "type", e.Type, "entity_id", e.EntityID, "exchange", c.exchangeName)
	return nil
}

// Consume delivers events to handler until ctx is cancelled.
// Malformed messages are dropped; handler errors requeue the message.
func (c *AMQPClient) Consume(ctx context.Context, handler func(context.Context, Event) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return ErrDisconnected
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			settle(ctx, delivery.Body, delivery, handler)
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, body []byte, d acknowledger, handler func(context.Context, Event) error) {
	e, err := Decode(body)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed event", "error", err)
		d.Nack(false, false)
		return
	}
	if err := handler(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to handle event", "type", e.Type, "entity_id", e.EntityID, "error", err)
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

// Close closes the channel and the connection. Later publishes return ErrClosed.
func (c *AMQPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	conn, channel := c.conn, c.channel
	c.conn, c.channel = nil, nil
	if channel != nil {
		channel.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
