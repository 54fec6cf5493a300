// Package common holds webhook settings shared by Meta platform products.
package common

import (
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

const (
	HeaderSignature256 = "X-Hub-Signature-256"
	SignaturePrefix    = "sha256="

	// Subscription handshake query parameters.
	QueryMode        = "hub.mode"
	QueryVerifyToken = "hub.verify_token"
	QueryChallenge   = "hub.challenge"
)

type WebhookConfig struct {
	AppSecret   string
	VerifyToken string
}

func DefaultWebhookConfig(appSecret string, verifyToken string) WebhookConfig {
	return WebhookConfig{
		AppSecret:   strings.TrimSpace(appSecret),
		VerifyToken: strings.TrimSpace(verifyToken),
	}
}

// NewWebhookTemplate verifies the app-secret HMAC Meta attaches to each
// delivery. Without an app secret the template carries no verifier.
func NewWebhookTemplate(providerID core.ProviderID, cfg WebhookConfig) webhooks.ProviderWebhookTemplate {
	template := webhooks.ProviderWebhookTemplate{ProviderID: providerID}
	if secret := strings.TrimSpace(cfg.AppSecret); secret != "" {
		template.Verifier = webhooks.HeaderHMACVerifier{
			Header:   HeaderSignature256,
			Prefix:   SignaturePrefix,
			Secret:   secret,
			Encoding: "hex",
		}
	}
	return template
}

// ChallengeFromQuery reads the handshake triplet from query values.
func ChallengeFromQuery(get func(key string) string) core.SubscriptionChallenge {
	if get == nil {
		return core.SubscriptionChallenge{}
	}
	return core.SubscriptionChallenge{
		Mode:      strings.TrimSpace(get(QueryMode)),
		Token:     get(QueryVerifyToken),
		Challenge: get(QueryChallenge),
	}
}
