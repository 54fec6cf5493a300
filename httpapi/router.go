// Package httpapi exposes the webhook, message and health endpoints over
// HTTP with a chi router.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultMaxBodyBytes int64 = 1 << 20

type WebhookDispatcher interface {
	Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

type MessageService interface {
	GetMessage(ctx context.Context, messageID string) (core.Message, error)
	ClassifyByID(ctx context.Context, messageID string) (core.ClassificationResult, error)
}

type Dependencies struct {
	Webhooks     WebhookDispatcher
	Subscription core.SubscriptionVerifier
	Messages     MessageService
	Logger       glog.Logger
	MaxBodyBytes int64
	Timeout      time.Duration
}

type Handler struct {
	webhooks     WebhookDispatcher
	subscription core.SubscriptionVerifier
	messages     MessageService
	logger       glog.Logger
	maxBodyBytes int64
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	limit := deps.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return &Handler{
		webhooks:     deps.Webhooks,
		subscription: deps.Subscription,
		messages:     deps.Messages,
		logger:       logger,
		maxBodyBytes: limit,
	}
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", h.Health)
	r.Post("/webhooks/{provider}", h.ReceiveWebhook)
	r.Get("/webhooks/{provider}", h.VerifyWebhook)
	r.Get("/messages/{id}", h.GetMessage)
	r.Post("/messages/{id}/classify", h.ClassifyMessage)
	return r
}
