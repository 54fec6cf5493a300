package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

const SubscribeMode = "subscribe"

var (
	errVerifyModeInvalid   = errors.New("core: hub.mode must be subscribe")
	errVerifyTokenMismatch = errors.New("core: verify token mismatch")
	errVerifyNotConfigured = errors.New("core: no verify token configured")
)

// VerifySubscription answers a provider handshake. The challenge is echoed only
// when the mode is subscribe and the token matches the configured secret.
func (s *Service) VerifySubscription(ctx context.Context, providerID ProviderID, req SubscriptionChallenge) (challenge string, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"provider_id": string(providerID)}
	defer func() {
		s.observeOperation(ctx, startedAt, "verify_subscription", err, fields)
	}()

	expected := s.config.VerifyToken(providerID)
	switch {
	case expected == "":
		err = NewVerificationError(providerID, errVerifyNotConfigured)
	case strings.TrimSpace(req.Mode) != SubscribeMode:
		err = NewVerificationError(providerID, errVerifyModeInvalid)
	case subtle.ConstantTimeCompare([]byte(req.Token), []byte(expected)) != 1:
		err = NewVerificationError(providerID, errVerifyTokenMismatch)
	}
	if err != nil {
		return "", err
	}
	return req.Challenge, nil
}
