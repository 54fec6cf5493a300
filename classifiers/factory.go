// Package classifiers selects the intent classifier named by configuration.
package classifiers

import (
	"fmt"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/llm"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/rules"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/transport"
)

const (
	KindRules = "rules"
	KindLLM   = "llm"
)

// New builds the classifier for cfg.Kind. An empty kind means rules. The
// client is only used by the llm classifier and may be nil.
func New(cfg core.ClassifierConfig, client transport.HTTPDoer) (core.Classifier, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.Kind)) {
	case "", KindRules:
		return rules.New(), nil
	case KindLLM:
		return llm.New(llm.ConfigFromCore(cfg), client)
	default:
		return nil, fmt.Errorf("classifiers: unknown kind %q", cfg.Kind)
	}
}
