package supersdr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gocommand"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/rules"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/devkit"
	memorystore "github.com/ThiagoDev202/supersdr-prova-tecnica/store/memory"
)

func newTestFacade(t *testing.T, cfg Config, opts ...FacadeOption) *Facade {
	t.Helper()
	base := []FacadeOption{WithServiceOptions(
		core.WithRepository(memorystore.NewMessageStore()),
		core.WithClassifier(rules.New()),
	)}
	facade, err := NewFacade(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	t.Cleanup(facade.Close)
	return facade
}

func TestNewFacade_RegistersDefaultAdapters(t *testing.T) {
	facade := newTestFacade(t, DefaultConfig())

	providers := facade.Service().Registry().Providers()
	if len(providers) != 2 || providers[0] != core.ProviderZAPI || providers[1] != core.ProviderMetaWhatsApp {
		t.Fatalf("expected zapi then meta_whatsapp, got %v", providers)
	}
	if facade.Bindings() == nil || facade.Dispatcher() == nil {
		t.Fatalf("expected bindings and dispatcher to be wired")
	}
}

func TestFacade_DispatchIngestsAndClassifiesInline(t *testing.T) {
	facade := newTestFacade(t, DefaultConfig())
	ctx := context.Background()

	body, err := json.Marshal(devkit.ZAPITextFixture().Payload)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	first, err := facade.Dispatcher().Dispatch(ctx, core.InboundRequest{ProviderID: "zapi", Body: body})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.StatusCode)
	}
	if _, ok := first.Body["classification"]; !ok {
		t.Fatalf("expected inline classification in ack, got %+v", first.Body)
	}

	second, err := facade.Dispatcher().Dispatch(ctx, core.InboundRequest{ProviderID: "zapi", Body: body})
	if err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if second.StatusCode != http.StatusOK || second.Body["id"] != first.Body["id"] {
		t.Fatalf("expected duplicate ack for the same message, got %d %+v", second.StatusCode, second.Body)
	}

	id, _ := first.Body["id"].(string)
	message, err := facade.Bindings().GetMessage(ctx, id)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if !message.Classified() || message.Contact.Phone != "5511988888888" {
		t.Fatalf("unexpected stored message %+v", message)
	}
}

func TestFacade_VerifiersFollowProviderSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.ZAPI.ClientToken = "zapi-token"
	facade := newTestFacade(t, cfg)

	if !facade.Verifiers().Has(core.ProviderZAPI) {
		t.Fatalf("expected zapi verifier with a client token")
	}
	if facade.Verifiers().Has(core.ProviderMetaWhatsApp) {
		t.Fatalf("expected no meta verifier without an app secret")
	}

	body, _ := json.Marshal(devkit.ZAPITextFixture().Payload)
	_, err := facade.Dispatcher().Dispatch(context.Background(), core.InboundRequest{ProviderID: "zapi", Body: body})
	if !core.IsVerificationError(err) {
		t.Fatalf("expected verification error without Client-Token, got %v", err)
	}
	result, err := facade.Dispatcher().Dispatch(context.Background(), core.InboundRequest{
		ProviderID: "zapi",
		Headers:    map[string]string{"Client-Token": "zapi-token"},
		Body:       body,
	})
	if err != nil {
		t.Fatalf("dispatch with token: %v", err)
	}
	if result.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", result.StatusCode)
	}
}

func TestFacade_HTTPDependenciesUseFacadeParts(t *testing.T) {
	facade := newTestFacade(t, DefaultConfig())
	deps := facade.HTTPDependencies(nil, 0)
	if deps.Webhooks == nil || deps.Subscription == nil || deps.Messages == nil {
		t.Fatalf("expected http dependencies to be populated, got %+v", deps)
	}
}

func TestNewFacade_PropagatesServiceErrors(t *testing.T) {
	if _, err := NewFacade(DefaultConfig()); err == nil {
		t.Fatalf("expected error without repository and classifier")
	}

	cfg := DefaultConfig()
	cfg.Classification.Mode = core.ClassificationModeAsync
	_, err := NewFacade(cfg, WithServiceOptions(
		core.WithRepository(memorystore.NewMessageStore()),
		core.WithClassifier(rules.New()),
	))
	if err == nil {
		t.Fatalf("expected async mode to require a scheduler")
	}
}

func TestNewFacade_BuildsBundles(t *testing.T) {
	hooks := NewExtensionHooks()
	if err := hooks.RegisterCommandQueryBundle("reader", func(service gocommand.Service) (any, error) {
		return service, nil
	}); err != nil {
		t.Fatalf("register bundle: %v", err)
	}
	facade := newTestFacade(t, DefaultConfig(), WithExtensionHooks(hooks))
	if bundle, ok := facade.Bundle("reader"); !ok || bundle == nil {
		t.Fatalf("expected reader bundle")
	}

	failing := NewExtensionHooks()
	_ = failing.RegisterCommandQueryBundle("broken", func(gocommand.Service) (any, error) {
		return nil, errors.New("boom")
	})
	_, err := NewFacade(DefaultConfig(),
		WithExtensionHooks(failing),
		WithServiceOptions(core.WithRepository(memorystore.NewMessageStore()), core.WithClassifier(rules.New())),
	)
	if err == nil {
		t.Fatalf("expected bundle factory error")
	}
}

func TestNewFacade_UsesProvidedCommandRegistry(t *testing.T) {
	commands := gocommand.NewRegistryAdapter(nil)
	facade := newTestFacade(t, DefaultConfig(), WithCommandRegistry(commands), WithRunnerOptions())

	message, err := facade.Bindings().ClassifyText(context.Background(), "bom dia")
	if err != nil {
		t.Fatalf("classify text through bindings: %v", err)
	}
	if message.Intent == "" {
		t.Fatalf("expected an intent from the rules classifier")
	}
}

func TestFacade_NilReceiver(t *testing.T) {
	var facade *Facade
	if facade.Service() != nil || facade.Bindings() != nil || facade.Dispatcher() != nil {
		t.Fatalf("expected nil parts on nil facade")
	}
	facade.Close()
}
