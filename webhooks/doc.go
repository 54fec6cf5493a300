// Package webhooks contains request verifiers applied to inbound provider
// webhooks before their bodies are parsed.
//
// A verifier set is keyed by provider id. Providers without a configured
// secret are accepted unverified.
package webhooks
