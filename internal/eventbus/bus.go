// Package eventbus wraps the AMQP broker behind publish/consume
// operations on typed events. A single durable topic exchange carries all
// pipeline events; routing keys equal event type strings verbatim.
package eventbus

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/metrics"
)

// attemptsHeader tracks how many times an event has been retried through
// republishing. Absent means first delivery.
const attemptsHeader = "x-attempts"

// Verdict is the consumer's decision for one delivery.
type Verdict int

const (
	// Ack removes the message from the queue.
	Ack Verdict = iota
	// NackRequeue returns the message to the queue for redelivery.
	NackRequeue
	// NackDrop discards the message without redelivery.
	NackDrop
)

func (v Verdict) String() string {
	switch v {
	case Ack:
		return "ack"
	case NackRequeue:
		return "requeue"
	case NackDrop:
		return "drop"
	}
	return "unknown"
}

// Delivery is one decoded message handed to a consumer.
type Delivery struct {
	Event event.Event
	// Attempts counts prior retries of this event (0 on first delivery).
	Attempts int
	// Redelivered reports broker-level redelivery, independent of Attempts.
	Redelivered bool
}

// HandlerFunc handles one delivery and decides its fate. It must be safe
// to re-run with the same input: delivery is at-least-once.
type HandlerFunc func(ctx context.Context, d Delivery) Verdict

// Bus is an AMQP connection scoped to one process. Construct one at
// startup and pass it to whatever needs it.
type Bus struct {
	conn     *amqp.Connection
	exchange string
	log      *logrus.Entry

	mu    sync.Mutex
	pubCh *amqp.Channel
}

// Dial connects to the broker and declares the topic exchange. A failure
// here is fatal to the process: there is no buffering fallback.
func Dial(url, exchange string, log *logrus.Logger) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: declare exchange %s: %w", exchange, err)
	}

	return &Bus{
		conn:     conn,
		exchange: exchange,
		log:      log.WithField("component", "eventbus"),
		pubCh:    ch,
	}, nil
}

func (b *Bus) Close() error {
	return b.conn.Close()
}

// Publish sends the event with its type as routing key. Messages are
// persistent so they survive a broker restart.
func (b *Bus) Publish(ctx context.Context, evt event.Event) error {
	return b.publish(ctx, evt, 0)
}

// Republish re-sends an event that failed handling, carrying the retry
// count so the next consumer can bound further attempts.
func (b *Bus) Republish(ctx context.Context, evt event.Event, attempts int) error {
	return b.publish(ctx, evt, attempts)
}

func (b *Bus) publish(ctx context.Context, evt event.Event, attempts int) error {
	body, err := evt.Encode()
	if err != nil {
		return err
	}

	headers := amqp.Table{}
	if attempts > 0 {
		headers[attemptsHeader] = int32(attempts)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.pubCh.PublishWithContext(ctx, b.exchange, string(evt.Type), false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     evt.ID,
		CorrelationId: evt.CorrelationID(),
		Headers:       headers,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", evt.Type, err)
	}

	metrics.EventsPublished.WithLabelValues(string(evt.Type)).Inc()
	b.log.WithFields(logrus.Fields{
		"event_type":     evt.Type,
		"event_id":       evt.ID,
		"correlation_id": evt.CorrelationID(),
	}).Debug("event published")
	return nil
}

// Consume declares queueName as a durable queue bound to each event type
// and processes deliveries one at a time (prefetch 1) until ctx is
// cancelled or the channel dies. A non-nil return other than ctx.Err()
// means the bus connection is gone; the process should exit and be
// restarted by its supervisor.
func (b *Bus) Consume(ctx context.Context, queueName string, types []event.Type, fn HandlerFunc) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("eventbus: open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("eventbus: declare queue %s: %w", queueName, err)
	}
	for _, t := range types {
		if err := ch.QueueBind(queueName, string(t), b.exchange, false, nil); err != nil {
			return fmt.Errorf("eventbus: bind %s to %s: %w", queueName, t, err)
		}
	}

	// One unacked message at a time: a message is fully handled before
	// the next is accepted.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("eventbus: set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("eventbus: consume %s: %w", queueName, err)
	}

	log := b.log.WithField("queue", queueName)
	log.WithField("bindings", types).Info("consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("eventbus: delivery channel closed for %s", queueName)
			}
			b.handle(ctx, log, queueName, d, fn)
		}
	}
}

func (b *Bus) handle(ctx context.Context, log *logrus.Entry, queueName string, d amqp.Delivery, fn HandlerFunc) {
	evt, err := event.Decode(d.MessageId, d.Body)
	if err != nil {
		// A malformed body never becomes valid on redelivery.
		log.WithError(err).Warn("dropping undecodable message")
		metrics.EventsConsumed.WithLabelValues(queueName, NackDrop.String()).Inc()
		if nerr := d.Nack(false, false); nerr != nil {
			log.WithError(nerr).Error("nack failed")
		}
		return
	}

	verdict := fn(ctx, Delivery{
		Event:       evt,
		Attempts:    attempts(d.Headers),
		Redelivered: d.Redelivered,
	})

	metrics.EventsConsumed.WithLabelValues(queueName, verdict.String()).Inc()

	switch verdict {
	case Ack:
		err = d.Ack(false)
	case NackRequeue:
		err = d.Nack(false, true)
	case NackDrop:
		err = d.Nack(false, false)
	}
	if err != nil {
		log.WithError(err).WithField("event_id", evt.ID).Error("delivery settlement failed")
	}
}

func attempts(h amqp.Table) int {
	switch v := h[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
