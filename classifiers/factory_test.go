package classifiers

import (
	"testing"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/llm"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/rules"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

func TestNew_SelectsByKind(t *testing.T) {
	got, err := New(core.ClassifierConfig{}, nil)
	if err != nil {
		t.Fatalf("default kind: %v", err)
	}
	if _, ok := got.(*rules.Classifier); !ok {
		t.Fatalf("expected rules classifier, got %T", got)
	}

	got, err = New(core.ClassifierConfig{Kind: " LLM ", BaseURL: "http://localhost", APIKey: "k", Model: "m"}, nil)
	if err != nil {
		t.Fatalf("llm kind: %v", err)
	}
	if _, ok := got.(*llm.Classifier); !ok {
		t.Fatalf("expected llm classifier, got %T", got)
	}

	if _, err := New(core.ClassifierConfig{Kind: "llm"}, nil); err == nil {
		t.Fatalf("expected llm config error")
	}
	if _, err := New(core.ClassifierConfig{Kind: "magic"}, nil); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
