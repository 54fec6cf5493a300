// Package amqpevents publishes message lifecycle events to a RabbitMQ topic
// exchange. The routing key is the event name.
package amqpevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/google/uuid"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/rabbitmq/amqp091-go"
)

const exchangeKind = "topic"

// Channel is the subset of *amqp091.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type ChannelFactory func() (Channel, error)

// Envelope is the JSON body of every published event.
type Envelope struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	MessageID  string         `json:"message_id"`
	Provider   string         `json:"provider"`
	ExternalID string         `json:"external_id"`
	Phone      string         `json:"phone"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Publisher struct {
	channels ChannelFactory
	exchange string
	logger   glog.Logger
	newID    func() string
	closer   func() error
}

type Option func(*Publisher)

func WithLogger(logger glog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(p *Publisher) {
		if fn != nil {
			p.newID = fn
		}
	}
}

func New(channels ChannelFactory, exchange string, opts ...Option) (*Publisher, error) {
	if channels == nil {
		return nil, fmt.Errorf("amqpevents: channel factory is required")
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return nil, fmt.Errorf("amqpevents: exchange is required")
	}
	p := &Publisher{
		channels: channels,
		exchange: exchange,
		logger:   glog.Nop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Dial connects to the broker and declares a durable topic exchange. Every
// channel it opens runs in publisher confirm mode, so a publish returns only
// after the broker acks it.
func Dial(url string, exchange string, opts ...Option) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("amqpevents: url is required")
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqpevents: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqpevents: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqpevents: declare exchange %q: %w", exchange, err)
	}

	p, err := New(func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return newConfirmingChannel(ch)
	}, exchange, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.closer = conn.Close
	return p, nil
}

func (p *Publisher) PublishMessageEvent(ctx context.Context, event core.MessageEvent) error {
	if p == nil || p.channels == nil {
		return fmt.Errorf("amqpevents: publisher is not configured")
	}
	name := strings.TrimSpace(event.Name)
	if name == "" {
		return fmt.Errorf("amqpevents: event name is required")
	}
	envelope := Envelope{
		ID:         p.newID(),
		Name:       name,
		MessageID:  event.MessageID,
		Provider:   string(event.Provider),
		ExternalID: event.ExternalID,
		Phone:      event.Phone,
		OccurredAt: event.OccurredAt.UTC(),
		Metadata:   event.Metadata,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("amqpevents: encode %s: %w", name, err)
	}

	ch, err := p.channels()
	if err != nil {
		return fmt.Errorf("amqpevents: open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx, p.exchange, name, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     envelope.ID,
		CorrelationId: event.MessageID,
		Timestamp:     envelope.OccurredAt,
		Type:          name,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("amqpevents: publish %s: %w", name, err)
	}
	p.logger.WithContext(ctx).Debug("event published",
		"exchange", p.exchange,
		"routing_key", name,
		"message_id", event.MessageID,
	)
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}

// confirmation is satisfied by *amqp091.DeferredConfirmation.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type confirmFunc func(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp091.Publishing) (confirmation, error)

// confirmingChannel publishes in confirm mode and blocks until the broker
// acks or nacks the delivery.
type confirmingChannel struct {
	publish confirmFunc
	close   func() error
}

func newConfirmingChannel(ch *amqp091.Channel) (*confirmingChannel, error) {
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("amqpevents: enable confirms: %w", err)
	}
	return &confirmingChannel{
		publish: func(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp091.Publishing) (confirmation, error) {
			deferred, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, immediate, msg)
			if err != nil {
				return nil, err
			}
			if deferred == nil {
				return nil, errNotConfirming
			}
			return deferred, nil
		},
		close: ch.Close,
	}, nil
}

func (c *confirmingChannel) PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp091.Publishing) error {
	pending, err := c.publish(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil {
		return err
	}
	acked, err := pending.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm: %w", err)
	}
	if !acked {
		return errNacked
	}
	return nil
}

func (c *confirmingChannel) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

var (
	errNacked        = errors.New("amqpevents: broker nacked delivery")
	errNotConfirming = errors.New("amqpevents: channel is not in confirm mode")
)

var (
	_ core.EventPublisher = (*Publisher)(nil)
	_ Channel             = (*confirmingChannel)(nil)
)
