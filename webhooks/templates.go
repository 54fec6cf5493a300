package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

type VerifierFunc func(ctx context.Context, req core.InboundRequest) error

func (f VerifierFunc) Verify(ctx context.Context, req core.InboundRequest) error {
	return f(ctx, req)
}

// ProviderWebhookTemplate binds a verifier to the provider it protects. A nil
// Verifier means the provider has no secret configured.
type ProviderWebhookTemplate struct {
	ProviderID core.ProviderID
	Verifier   Verifier
}

type HeaderHMACVerifier struct {
	Header   string
	Prefix   string
	Secret   string
	Encoding string // hex | base64
}

func (v HeaderHMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	header := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if header == "" {
		return fmt.Errorf("webhooks: %s signature header is required", strings.TrimSpace(v.Header))
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	signature := strings.TrimPrefix(header, strings.TrimSpace(v.Prefix))
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("webhooks: signature value is required")
	}

	expected := Sign(secret, req.Body)
	var decoded []byte
	var err error
	switch strings.ToLower(strings.TrimSpace(v.Encoding)) {
	case "base64":
		decoded, err = base64.StdEncoding.DecodeString(signature)
	default:
		decoded, err = hex.DecodeString(signature)
	}
	if err != nil {
		return fmt.Errorf("webhooks: decode signature: %w", err)
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return fmt.Errorf("webhooks: signature verification failed")
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

type HeaderTokenVerifier struct {
	Header string
	Token  string
}

func (v HeaderTokenVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return fmt.Errorf("webhooks: verification token is required")
	}
	actual := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if actual == "" {
		return fmt.Errorf("webhooks: %s verification header is required", strings.TrimSpace(v.Header))
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return fmt.Errorf("webhooks: verification token mismatch")
	}
	return nil
}

// VerifierSet dispatches verification by the request provider id.
type VerifierSet struct {
	verifiers map[core.ProviderID]Verifier
}

func NewVerifierSet(templates ...ProviderWebhookTemplate) *VerifierSet {
	set := &VerifierSet{verifiers: map[core.ProviderID]Verifier{}}
	for _, template := range templates {
		set.Add(template)
	}
	return set
}

func (s *VerifierSet) Add(template ProviderWebhookTemplate) {
	if s == nil || template.Verifier == nil {
		return
	}
	if s.verifiers == nil {
		s.verifiers = map[core.ProviderID]Verifier{}
	}
	s.verifiers[template.ProviderID] = template.Verifier
}

func (s *VerifierSet) Has(providerID core.ProviderID) bool {
	if s == nil {
		return false
	}
	_, ok := s.verifiers[providerID]
	return ok
}

// Verify checks the request against its provider's verifier. Failures are
// returned as core verification errors.
func (s *VerifierSet) Verify(ctx context.Context, req core.InboundRequest) error {
	if s == nil {
		return nil
	}
	providerID := core.ProviderID(strings.TrimSpace(req.ProviderID))
	verifier, ok := s.verifiers[providerID]
	if !ok {
		return nil
	}
	if err := verifier.Verify(ctx, req); err != nil {
		return core.NewVerificationError(providerID, err)
	}
	return nil
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var (
	_ Verifier = HeaderHMACVerifier{}
	_ Verifier = HeaderTokenVerifier{}
	_ Verifier = (*VerifierSet)(nil)
	_ Verifier = VerifierFunc(nil)
)
