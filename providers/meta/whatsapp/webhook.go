package whatsapp

import (
	meta "github.com/ThiagoDev202/supersdr-prova-tecnica/providers/meta/common"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

type WebhookConfig = meta.WebhookConfig

func DefaultWebhookConfig(appSecret string, verifyToken string) WebhookConfig {
	return meta.DefaultWebhookConfig(appSecret, verifyToken)
}

func NewWebhookTemplate(cfg WebhookConfig) webhooks.ProviderWebhookTemplate {
	return meta.NewWebhookTemplate(ProviderID, cfg)
}
