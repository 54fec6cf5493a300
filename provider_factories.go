package supersdr

import (
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/meta/whatsapp"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/zapi"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

func ZAPIAdapter() core.Adapter {
	return zapi.New()
}

func MetaWhatsAppAdapter() core.Adapter {
	return whatsapp.New()
}

// DefaultAdapters returns the built-in adapters in registration order. Z-API
// comes first, so it wins when a payload matches both.
func DefaultAdapters() []core.Adapter {
	return []core.Adapter{ZAPIAdapter(), MetaWhatsAppAdapter()}
}

// DefaultWebhookTemplates builds signature verifiers from provider secrets.
// Providers without a configured secret are accepted unverified.
func DefaultWebhookTemplates(cfg Config) []webhooks.ProviderWebhookTemplate {
	return []webhooks.ProviderWebhookTemplate{
		zapi.NewWebhookTemplate(zapi.DefaultWebhookConfig(cfg.Providers.ZAPI.ClientToken)),
		whatsapp.NewWebhookTemplate(whatsapp.DefaultWebhookConfig(
			cfg.Providers.MetaWhatsApp.AppSecret,
			cfg.Providers.MetaWhatsApp.VerifyToken,
		)),
	}
}
