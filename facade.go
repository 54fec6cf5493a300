// Package supersdr assembles the webhook normalizer: provider adapters,
// signature verifiers, the core service and its command/query bindings.
package supersdr

import (
	"fmt"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gocommand"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/httpapi"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/inbound"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
	"github.com/goliatone/go-command/runner"
	glog "github.com/goliatone/go-logger/glog"
)

type Facade struct {
	service    *core.Service
	bindings   *gocommand.Bindings
	dispatcher *inbound.Dispatcher
	verifiers  *webhooks.VerifierSet
	bundles    map[string]any
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	hooks          *ExtensionHooks
	commands       *gocommand.RegistryAdapter
	serviceOptions []core.Option
	runnerOptions  []runner.Option
}

func WithExtensionHooks(hooks *ExtensionHooks) FacadeOption {
	return func(options *facadeOptions) {
		options.hooks = hooks
	}
}

func WithCommandRegistry(adapter *gocommand.RegistryAdapter) FacadeOption {
	return func(options *facadeOptions) {
		options.commands = adapter
	}
}

// WithServiceOptions forwards options to core.NewService. They apply after the
// facade's own registry, so WithRegistry here replaces the default one.
func WithServiceOptions(opts ...core.Option) FacadeOption {
	return func(options *facadeOptions) {
		options.serviceOptions = append(options.serviceOptions, opts...)
	}
}

func WithRunnerOptions(opts ...runner.Option) FacadeOption {
	return func(options *facadeOptions) {
		options.runnerOptions = append(options.runnerOptions, opts...)
	}
}

func NewFacade(cfg Config, opts ...FacadeOption) (*Facade, error) {
	options := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	registry, err := core.NewAdapterRegistry(DefaultAdapters()...)
	if err != nil {
		return nil, fmt.Errorf("supersdr: build adapter registry: %w", err)
	}
	if err := options.hooks.ApplyAdapterPacks(registry); err != nil {
		return nil, err
	}

	serviceOptions := append([]core.Option{core.WithRegistry(registry)}, options.serviceOptions...)
	service, err := core.NewService(cfg, serviceOptions...)
	if err != nil {
		return nil, err
	}

	verifiers := webhooks.NewVerifierSet(DefaultWebhookTemplates(service.Config())...)
	if err := options.hooks.ApplyWebhookTemplates(verifiers); err != nil {
		return nil, err
	}

	commands := options.commands
	if commands == nil {
		commands = gocommand.NewRegistryAdapter(nil)
	}
	bindings, err := gocommand.Bind(commands, service, options.runnerOptions...)
	if err != nil {
		return nil, err
	}

	bundles, err := options.hooks.BuildCommandQueryBundles(service)
	if err != nil {
		bindings.Close()
		return nil, err
	}

	return &Facade{
		service:    service,
		bindings:   bindings,
		dispatcher: inbound.NewDispatcher(verifiers, bindings),
		verifiers:  verifiers,
		bundles:    bundles,
	}, nil
}

func (f *Facade) Service() *core.Service {
	if f == nil {
		return nil
	}
	return f.service
}

// Bindings routes calls through the go-command dispatcher.
func (f *Facade) Bindings() *gocommand.Bindings {
	if f == nil {
		return nil
	}
	return f.bindings
}

func (f *Facade) Dispatcher() *inbound.Dispatcher {
	if f == nil {
		return nil
	}
	return f.dispatcher
}

func (f *Facade) Verifiers() *webhooks.VerifierSet {
	if f == nil {
		return nil
	}
	return f.verifiers
}

func (f *Facade) Bundle(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	bundle, ok := f.bundles[name]
	return bundle, ok
}

// HTTPDependencies wires the HTTP boundary to the facade's dispatcher and
// bindings.
func (f *Facade) HTTPDependencies(logger glog.Logger, timeout time.Duration) httpapi.Dependencies {
	if f == nil {
		return httpapi.Dependencies{Logger: logger, Timeout: timeout}
	}
	return httpapi.Dependencies{
		Webhooks:     f.dispatcher,
		Subscription: f.service,
		Messages:     f.bindings,
		Logger:       logger,
		Timeout:      timeout,
	}
}

// Close releases the dispatcher subscriptions.
func (f *Facade) Close() {
	if f == nil {
		return
	}
	f.bindings.Close()
}
