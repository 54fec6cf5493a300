package supersdr

import "github.com/ThiagoDev202/supersdr-prova-tecnica/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Adapter = core.Adapter
type Registry = core.Registry
type MessageRepository = core.MessageRepository
type Classifier = core.Classifier
type ClassificationScheduler = core.ClassificationScheduler
type EventPublisher = core.EventPublisher

type Message = core.Message
type Classification = core.Classification
type IngestResult = core.IngestResult
type ClassificationResult = core.ClassificationResult

var (
	WithLogger                  = core.WithLogger
	WithLoggerProvider          = core.WithLoggerProvider
	WithErrorMapper             = core.WithErrorMapper
	WithConfigProvider          = core.WithConfigProvider
	WithOptionsResolver         = core.WithOptionsResolver
	WithMetricsRecorder         = core.WithMetricsRecorder
	WithRegistry                = core.WithRegistry
	WithRepository              = core.WithRepository
	WithClassifier              = core.WithClassifier
	WithClassificationScheduler = core.WithClassificationScheduler
	WithEventPublisher          = core.WithEventPublisher
	WithClock                   = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
