package supersdr

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gocommand"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

// AdapterPack groups extra provider adapters registered after the defaults.
type AdapterPack struct {
	Name     string
	Adapters []core.Adapter
}

// WebhookTemplatePack carries signature verifiers for pack providers.
type WebhookTemplatePack struct {
	Name      string
	Templates []webhooks.ProviderWebhookTemplate
}

type CommandQueryBundleFactory func(service gocommand.Service) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	adapterPacks  map[string]AdapterPack
	templatePacks map[string]WebhookTemplatePack
	bundles       map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		adapterPacks:  map[string]AdapterPack{},
		templatePacks: map[string]WebhookTemplatePack{},
		bundles:       map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterAdapterPack(pack AdapterPack) error {
	if h == nil {
		return fmt.Errorf("supersdr: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("supersdr: adapter pack name is required")
	}
	if len(pack.Adapters) == 0 {
		return fmt.Errorf("supersdr: adapter pack %q has no adapters", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.adapterPacks[name]; exists {
		return fmt.Errorf("supersdr: adapter pack %q already registered", name)
	}
	h.adapterPacks[name] = AdapterPack{
		Name:     name,
		Adapters: append([]core.Adapter(nil), pack.Adapters...),
	}
	return nil
}

func (h *ExtensionHooks) RegisterWebhookTemplatePack(pack WebhookTemplatePack) error {
	if h == nil {
		return fmt.Errorf("supersdr: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("supersdr: webhook template pack name is required")
	}
	if len(pack.Templates) == 0 {
		return fmt.Errorf("supersdr: webhook template pack %q has no templates", name)
	}
	for _, template := range pack.Templates {
		if strings.TrimSpace(string(template.ProviderID)) == "" {
			return fmt.Errorf("supersdr: webhook template pack %q has a template without provider id", name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.templatePacks[name]; exists {
		return fmt.Errorf("supersdr: webhook template pack %q already registered", name)
	}
	h.templatePacks[name] = WebhookTemplatePack{
		Name:      name,
		Templates: append([]webhooks.ProviderWebhookTemplate(nil), pack.Templates...),
	}
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(name string, factory CommandQueryBundleFactory) error {
	if h == nil {
		return fmt.Errorf("supersdr: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("supersdr: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("supersdr: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("supersdr: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyAdapterPacks registers pack adapters in pack name order. An adapter for
// an already registered provider replaces it in place.
func (h *ExtensionHooks) ApplyAdapterPacks(registry core.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("supersdr: registry is required")
	}
	for _, pack := range h.AdapterPacks() {
		for _, adapter := range pack.Adapters {
			if adapter == nil {
				return fmt.Errorf("supersdr: adapter pack %q contains nil adapter", pack.Name)
			}
			if err := registry.Register(adapter); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) ApplyWebhookTemplates(set *webhooks.VerifierSet) error {
	if h == nil {
		return nil
	}
	if set == nil {
		return fmt.Errorf("supersdr: verifier set is required")
	}
	h.mu.RLock()
	names := sortedKeys(h.templatePacks)
	packs := make([]WebhookTemplatePack, 0, len(names))
	for _, name := range names {
		packs = append(packs, h.templatePacks[name])
	}
	h.mu.RUnlock()

	for _, pack := range packs {
		for _, template := range pack.Templates {
			set.Add(template)
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(service gocommand.Service) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("supersdr: command/query service is required")
	}

	h.mu.RLock()
	names := sortedKeys(h.bundles)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, fmt.Errorf("supersdr: build bundle %q: %w", name, err)
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) AdapterPacks() []AdapterPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := sortedKeys(h.adapterPacks)
	out := make([]AdapterPack, 0, len(names))
	for _, name := range names {
		pack := h.adapterPacks[name]
		out = append(out, AdapterPack{
			Name:     pack.Name,
			Adapters: append([]core.Adapter(nil), pack.Adapters...),
		})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.bundles)
}

func sortedKeys[V any](values map[string]V) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
