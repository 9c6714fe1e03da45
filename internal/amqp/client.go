// Package amqp publishes ledger events to RabbitMQ and consumes them in workers.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"debiti/internal/core"
	"debiti/internal/ledger"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Client owns one connection and channel. Publishing is guarded by a circuit
// breaker; consumers reconnect with exponential backoff.
type Client struct {
	url           string
	exchangeName  string
	queueName     string // payment events
	reminderQueue string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	logger *slog.Logger

	// Overridable in tests; nil means openDeliveries and exponentialBackoff.
	deliveries func(queue string) (<-chan amqp091.Delivery, error)
	backoff    func(attempt int) time.Duration
}

var (
	_ ledger.Publisher = (*Client)(nil)
)

// NewClient dials the broker and declares the exchange and both queues.
func NewClient(url, exchangeName, paymentQueue, reminderQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		url:           url,
		exchangeName:  exchangeName,
		queueName:     paymentQueue,
		reminderQueue: reminderQueue,
		logger:        logger,
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}
	c.conn, c.channel = conn, channel
	return channel, nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
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

	for _, queue := range []string{c.queueName, c.reminderQueue} {
		if queue == "" {
			continue
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key equals the queue name on a direct exchange.
		if err := ch.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishPaymentRecorded implements ledger.Publisher.
func (c *Client) PublishPaymentRecorded(ctx context.Context, p core.Payment, res ledger.PaymentResult) error {
	msg := NewPaymentRecordedMessage(p, res)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, msg.MessageID, body); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Published payment message",
		"payment_id", p.ID,
		"obligation_id", p.ObligationID,
		"message_id", msg.MessageID,
		"queue", c.queueName)
	return nil
}

// NotifyReminder publishes a reminder for an external notification service.
func (c *Client) NotifyReminder(ctx context.Context, r core.Reminder, o core.Obligation) error {
	msg := NewReminderDueMessage(r, o)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.reminderQueue, msg.MessageID, body); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Published reminder message",
		"reminder_id", r.ID,
		"obligation_id", o.ID,
		"due_date", msg.DueDate,
		"queue", c.reminderQueue)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: circuit breaker is open", routingKey)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// ConsumePaymentRecorded delivers payment messages to handler until ctx ends.
// Malformed messages are dropped; handler errors requeue the message.
func (c *Client) ConsumePaymentRecorded(ctx context.Context, handler func(context.Context, *PaymentRecordedMessage) error) error {
	return c.consume(ctx, c.queueName, func(ctx context.Context, body []byte) (bool, error) {
		msg, err := PaymentRecordedMessageFromJSON(body)
		if err != nil {
			return false, err
		}
		c.logger.InfoContext(ctx, "Processing payment message",
			"payment_id", msg.PaymentID,
			"message_id", msg.MessageID)
		return true, handler(ctx, msg)
	})
}

// consume runs deliveries from queue through handle, reconnecting with
// backoff whenever the connection or the consumer cannot be set up and when
// the delivery channel drops. handle reports whether the body parsed.
func (c *Client) consume(ctx context.Context, queue string, handle func(context.Context, []byte) (bool, error)) error {
	open := c.deliveries
	if open == nil {
		open = c.openDeliveries
	}
	backoff := c.backoff
	if backoff == nil {
		backoff = exponentialBackoff
	}

	attempt := 0
	for {
		msgs, err := open(queue)
		if err != nil {
			wait := backoff(attempt)
			c.logger.WarnContext(ctx, "AMQP consumer setup failed, retrying",
				"queue", queue, "error", err, "attempt", attempt, "backoff", wait)
			attempt++
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}
		attempt = 0
		c.logger.InfoContext(ctx, "Started consuming messages", "queue", queue)

		if err := c.drain(ctx, msgs, handle); err != nil {
			return err
		}
		c.logger.WarnContext(ctx, "Delivery channel closed, reconnecting", "queue", queue)
		c.reset()
	}
}

// openDeliveries connects if needed and starts a consumer on queue.
func (c *Client) openDeliveries(queue string) (<-chan amqp091.Delivery, error) {
	ch, err := c.ensureChannel()
	if err != nil {
		return nil, err
	}
	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		c.reset()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Client) drain(ctx context.Context, msgs <-chan amqp091.Delivery, handle func(context.Context, []byte) (bool, error)) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return nil
			}
			parsed, err := handle(ctx, delivery.Body)
			switch {
			case !parsed:
				c.logger.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
			case err != nil:
				c.logger.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, true)
			default:
				delivery.Ack(false)
			}
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		err = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = errors.Join(err, c.conn.Close())
		c.conn = nil
	}
	return err
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
