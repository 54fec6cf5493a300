package query

import (
	"context"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

type MessageReader interface {
	GetMessage(ctx context.Context, messageID string) (core.Message, error)
}

type TextClassifier interface {
	ClassifyText(ctx context.Context, text string) (core.Classification, error)
}

type GetMessageQuery struct {
	reader MessageReader
}

func NewGetMessageQuery(reader MessageReader) *GetMessageQuery {
	return &GetMessageQuery{reader: reader}
}

func (q *GetMessageQuery) Query(ctx context.Context, msg GetMessageMessage) (core.Message, error) {
	if q == nil || q.reader == nil {
		return core.Message{}, queryDependencyError("query: message reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Message{}, err
	}
	return q.reader.GetMessage(ctx, msg.MessageID)
}

type ClassifyTextQuery struct {
	classifier TextClassifier
}

func NewClassifyTextQuery(classifier TextClassifier) *ClassifyTextQuery {
	return &ClassifyTextQuery{classifier: classifier}
}

func (q *ClassifyTextQuery) Query(ctx context.Context, msg ClassifyTextMessage) (core.Classification, error) {
	if q == nil || q.classifier == nil {
		return core.Classification{}, queryDependencyError("query: text classifier is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Classification{}, err
	}
	return q.classifier.ClassifyText(ctx, msg.Text)
}
