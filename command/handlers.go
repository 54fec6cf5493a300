package command

import (
	"context"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	gocmd "github.com/goliatone/go-command"
)

type IngestService interface {
	Ingest(ctx context.Context, providerID core.ProviderID, payload map[string]any) (core.IngestResult, error)
	IngestDetected(ctx context.Context, payload map[string]any) (core.IngestResult, error)
}

type ClassifyService interface {
	ClassifyByID(ctx context.Context, messageID string) (core.ClassificationResult, error)
}

type IngestWebhookCommand struct {
	service IngestService
}

func NewIngestWebhookCommand(service IngestService) *IngestWebhookCommand {
	return &IngestWebhookCommand{service: service}
}

func (c *IngestWebhookCommand) Execute(ctx context.Context, msg IngestWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ingest service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	var (
		out core.IngestResult
		err error
	)
	if msg.ProviderID == "" {
		out, err = c.service.IngestDetected(ctx, msg.Payload)
	} else {
		out, err = c.service.Ingest(ctx, msg.ProviderID, msg.Payload)
	}
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClassifyMessageCommand struct {
	service ClassifyService
}

func NewClassifyMessageCommand(service ClassifyService) *ClassifyMessageCommand {
	return &ClassifyMessageCommand{service: service}
}

func (c *ClassifyMessageCommand) Execute(ctx context.Context, msg ClassifyMessageMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: classification service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.ClassifyByID(ctx, msg.MessageID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
