package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const levelTrace = slog.Level(-8)

type slogProvider struct {
	base *slog.Logger
}

func newLoggerProvider(level string) glog.LoggerProvider {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})
	return slogProvider{base: slog.New(handler)}
}

func (p slogProvider) GetLogger(name string) glog.Logger {
	return slogLogger{logger: p.base.With("logger", name)}
}

// slogLogger backs glog.Logger with log/slog.
type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func (l slogLogger) Trace(msg string, args ...any) { l.log(levelTrace, msg, args...) }
func (l slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l slogLogger) Fatal(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
	os.Exit(1)
}

func (l slogLogger) WithContext(ctx context.Context) glog.Logger {
	return slogLogger{logger: l.logger, ctx: ctx}
}

func (l slogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	l.logger.Log(ctx, level, msg, args...)
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return levelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
