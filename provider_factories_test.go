package supersdr

import (
	"testing"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/devkit"
)

func TestDefaultAdapters_PassConformance(t *testing.T) {
	adapters := map[core.ProviderID]core.Adapter{}
	for _, adapter := range DefaultAdapters() {
		adapters[adapter.Provider()] = adapter
	}
	for _, fixture := range devkit.AdapterFixtures() {
		adapter, ok := adapters[fixture.Provider]
		if !ok {
			t.Fatalf("no default adapter for %s", fixture.Provider)
		}
		if err := devkit.ValidateAdapterConformance(adapter, fixture); err != nil {
			t.Fatalf("%s: %v", fixture.Name, err)
		}
	}
}

func TestDefaultWebhookTemplates(t *testing.T) {
	templates := DefaultWebhookTemplates(DefaultConfig())
	if len(templates) != 2 {
		t.Fatalf("expected one template per provider, got %d", len(templates))
	}
	for _, template := range templates {
		if template.Verifier != nil {
			t.Fatalf("expected no verifier for %s without secrets", template.ProviderID)
		}
	}

	cfg := DefaultConfig()
	cfg.Providers.ZAPI.ClientToken = "token"
	cfg.Providers.MetaWhatsApp.AppSecret = "secret"
	for _, template := range DefaultWebhookTemplates(cfg) {
		if template.Verifier == nil {
			t.Fatalf("expected verifier for %s", template.ProviderID)
		}
	}
}
