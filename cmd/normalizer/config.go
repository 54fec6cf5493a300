package main

import (
	"context"
	"strings"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
)

// runtimeOverrides are flag values that win over the config file.
type runtimeOverrides struct {
	addr string
	mode string
}

func loadConfig(ctx context.Context, overrides runtimeOverrides) (core.Config, error) {
	loader := core.YAMLFileLoader{Path: configPath, Required: strings.TrimSpace(configPath) != ""}
	runtime := core.Config{
		HTTP:           core.HTTPConfig{Addr: strings.TrimSpace(overrides.addr)},
		Classification: core.ClassificationConfig{Mode: strings.TrimSpace(overrides.mode)},
	}
	return core.ResolveConfig(ctx, core.NewCfgxConfigProvider(loader), runtime)
}
