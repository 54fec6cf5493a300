// Package gocommand registers the normalizer commands and queries on a
// go-command registry and dispatches them.
package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/command"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/query"
	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(gocmd.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *gocmd.Registry
}

func NewRegistryAdapter(registry *gocmd.Registry) *RegistryAdapter {
	if registry == nil {
		registry = gocmd.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *gocmd.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver gocmd.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// DispatchWithResult runs a command and returns the value its handler stored.
func DispatchWithResult[T any, R any](ctx context.Context, msg T) (R, error) {
	var zero R
	collector := gocmd.NewResult[R]()
	if err := Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	out, ok := collector.Load()
	if !ok {
		return zero, fmt.Errorf("gocommand: command stored no result")
	}
	return out, nil
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd gocmd.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry gocmd.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Service is everything the normalizer handlers delegate to.
type Service interface {
	command.IngestService
	command.ClassifyService
	query.MessageReader
	query.TextClassifier
}

// Bindings holds the dispatcher subscriptions for the normalizer handlers.
type Bindings struct {
	subscriptions []commanddispatcher.Subscription
}

// Bind subscribes the ingest and classify commands plus the message and
// text queries. Subscriptions are process wide; call Close to release them.
func Bind(adapter *RegistryAdapter, service Service, runnerOpts ...runner.Option) (*Bindings, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: service is required")
	}
	bindings := &Bindings{}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, command.NewIngestWebhookCommand(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, command.NewClassifyMessageCommand(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, query.NewGetMessageQuery(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, query.NewClassifyTextQuery(service), runnerOpts...)
		},
	}
	for _, step := range steps {
		subscription, err := step()
		if err != nil {
			bindings.Close()
			return nil, err
		}
		bindings.subscriptions = append(bindings.subscriptions, subscription)
	}
	if err := adapter.Initialize(); err != nil {
		bindings.Close()
		return nil, err
	}
	return bindings, nil
}

func (b *Bindings) Close() {
	if b == nil {
		return
	}
	for _, subscription := range b.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

// Ingest dispatches an IngestWebhookMessage.
func (b *Bindings) Ingest(ctx context.Context, providerID core.ProviderID, payload map[string]any) (core.IngestResult, error) {
	if b == nil {
		return core.IngestResult{}, errNotBound
	}
	return DispatchWithResult[command.IngestWebhookMessage, core.IngestResult](ctx, command.IngestWebhookMessage{
		ProviderID: providerID,
		Payload:    payload,
	})
}

func (b *Bindings) ClassifyByID(ctx context.Context, messageID string) (core.ClassificationResult, error) {
	if b == nil {
		return core.ClassificationResult{}, errNotBound
	}
	return DispatchWithResult[command.ClassifyMessageMessage, core.ClassificationResult](ctx, command.ClassifyMessageMessage{
		MessageID: messageID,
	})
}

func (b *Bindings) GetMessage(ctx context.Context, messageID string) (core.Message, error) {
	if b == nil {
		return core.Message{}, errNotBound
	}
	return Query[query.GetMessageMessage, core.Message](ctx, query.GetMessageMessage{MessageID: messageID})
}

func (b *Bindings) ClassifyText(ctx context.Context, text string) (core.Classification, error) {
	if b == nil {
		return core.Classification{}, errNotBound
	}
	return Query[query.ClassifyTextMessage, core.Classification](ctx, query.ClassifyTextMessage{Text: text})
}

var errNotBound = errors.New("gocommand: handlers are not bound")
