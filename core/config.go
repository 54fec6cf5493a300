package core

import (
	"fmt"
	"strings"
)

const (
	ClassificationModeInline = "inline"
	ClassificationModeAsync  = "async"
)

type ClassificationConfig struct {
	Mode string `koanf:"mode" mapstructure:"mode"`
}

type ClassifierConfig struct {
	Kind           string `koanf:"kind" mapstructure:"kind"`
	BaseURL        string `koanf:"base_url" mapstructure:"base_url"`
	APIKey         string `koanf:"api_key" mapstructure:"api_key"`
	Model          string `koanf:"model" mapstructure:"model"`
	TimeoutSeconds int    `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type ZAPIConfig struct {
	ClientToken string `koanf:"client_token" mapstructure:"client_token"`
}

type MetaWhatsAppConfig struct {
	VerifyToken string `koanf:"verify_token" mapstructure:"verify_token"`
	AppSecret   string `koanf:"app_secret" mapstructure:"app_secret"`
}

type ProvidersConfig struct {
	ZAPI         ZAPIConfig         `koanf:"zapi" mapstructure:"zapi"`
	MetaWhatsApp MetaWhatsAppConfig `koanf:"meta_whatsapp" mapstructure:"meta_whatsapp"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

type CacheConfig struct {
	TTLSeconds int `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
}

type EventsConfig struct {
	AMQPURL  string `koanf:"amqp_url" mapstructure:"amqp_url"`
	Exchange string `koanf:"exchange" mapstructure:"exchange"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" mapstructure:"addr"`
}

type Config struct {
	ServiceName    string               `koanf:"service_name" mapstructure:"service_name"`
	Classification ClassificationConfig `koanf:"classification" mapstructure:"classification"`
	Classifier     ClassifierConfig     `koanf:"classifier" mapstructure:"classifier"`
	Providers      ProvidersConfig      `koanf:"providers" mapstructure:"providers"`
	Database       DatabaseConfig       `koanf:"database" mapstructure:"database"`
	Cache          CacheConfig          `koanf:"cache" mapstructure:"cache"`
	Events         EventsConfig         `koanf:"events" mapstructure:"events"`
	HTTP           HTTPConfig           `koanf:"http" mapstructure:"http"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "normalizer",
		Classification: ClassificationConfig{Mode: ClassificationModeInline},
		Classifier: ClassifierConfig{
			Kind:           "rules",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:normalizer.db?cache=shared&_foreign_keys=on",
		},
		Cache:  CacheConfig{TTLSeconds: 60},
		Events: EventsConfig{Exchange: "normalizer.events"},
		HTTP:   HTTPConfig{Addr: ":8080"},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(strings.ToLower(c.Classification.Mode)) {
	case "", ClassificationModeInline, ClassificationModeAsync:
	default:
		return fmt.Errorf("core: classification.mode %q is invalid", c.Classification.Mode)
	}
	switch strings.TrimSpace(strings.ToLower(c.Classifier.Kind)) {
	case "", "rules", "llm":
	default:
		return fmt.Errorf("core: classifier.kind %q is invalid", c.Classifier.Kind)
	}
	if strings.EqualFold(strings.TrimSpace(c.Classifier.Kind), "llm") && strings.TrimSpace(c.Classifier.APIKey) == "" {
		return fmt.Errorf("core: classifier.api_key is required for the llm classifier")
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return fmt.Errorf("core: classifier.timeout_seconds must not be negative")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("core: cache.ttl_seconds must not be negative")
	}
	return nil
}

// ClassificationMode returns the normalized mode, defaulting to inline.
func (c Config) ClassificationMode() string {
	mode := strings.TrimSpace(strings.ToLower(c.Classification.Mode))
	if mode == "" {
		return ClassificationModeInline
	}
	return mode
}

// VerifyToken returns the handshake secret configured for a provider.
func (c Config) VerifyToken(providerID ProviderID) string {
	switch providerID {
	case ProviderMetaWhatsApp:
		return strings.TrimSpace(c.Providers.MetaWhatsApp.VerifyToken)
	default:
		return ""
	}
}
