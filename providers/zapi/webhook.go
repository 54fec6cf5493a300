package zapi

import (
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

// HeaderClientToken carries the account security token on every callback.
const HeaderClientToken = "Client-Token"

type WebhookConfig struct {
	ClientToken string
}

func DefaultWebhookConfig(clientToken string) WebhookConfig {
	return WebhookConfig{ClientToken: strings.TrimSpace(clientToken)}
}

// NewWebhookTemplate returns a template without verifier when no client token
// is configured.
func NewWebhookTemplate(cfg WebhookConfig) webhooks.ProviderWebhookTemplate {
	template := webhooks.ProviderWebhookTemplate{ProviderID: ProviderID}
	if token := strings.TrimSpace(cfg.ClientToken); token != "" {
		template.Verifier = webhooks.HeaderTokenVerifier{
			Header: HeaderClientToken,
			Token:  token,
		}
	}
	return template
}
