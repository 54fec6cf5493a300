// Package gologger bridges go-logger providers into the service, the
// classification worker and go-job.
package gologger

import (
	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gojob"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	LoggerService = "normalizer"
	LoggerWorker  = "normalizer.worker"
	LoggerHTTP    = "normalizer.http"
	LoggerEvents  = "normalizer.events"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// Named returns the logger for one component name.
func Named(name string, provider glog.LoggerProvider, logger glog.Logger) glog.Logger {
	_, resolved := Resolve(name, provider, logger)
	return resolved
}

// ServiceOptions hands the resolved provider and logger to core.NewService.
func ServiceOptions(provider glog.LoggerProvider, logger glog.Logger) []core.Option {
	resolvedProvider, resolvedLogger := Resolve(LoggerService, provider, logger)
	return []core.Option{
		core.WithLoggerProvider(resolvedProvider),
		core.WithLogger(resolvedLogger),
	}
}

// WorkerHook builds the worker lifecycle hook on the worker logger.
func WorkerHook(provider glog.LoggerProvider, logger glog.Logger) *gojob.LoggingHook {
	return gojob.NewLoggingHook(Named(LoggerWorker, provider, logger))
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}
