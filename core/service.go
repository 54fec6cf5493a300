package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Service runs the webhook processing and classification pipelines over an
// injected registry, repository and classifier.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	repository      MessageRepository
	classifier      Classifier
	scheduler       ClassificationScheduler
	publisher       EventPublisher
	now             func() time.Time
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Registry        Registry
	Repository      MessageRepository
	Classifier      Classifier
	Scheduler       ClassificationScheduler
	Publisher       EventPublisher
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("normalizer", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("normalizer"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = &AdapterRegistry{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repository == nil {
		return nil, fmt.Errorf("core: message repository is required")
	}
	if builder.classifier == nil {
		return nil, fmt.Errorf("core: classifier is required")
	}
	if finalConfig.ClassificationMode() == ClassificationModeAsync && builder.scheduler == nil {
		return nil, fmt.Errorf("core: classification scheduler is required in async mode")
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		registry:        builder.registry,
		repository:      builder.repository,
		classifier:      builder.classifier,
		scheduler:       builder.scheduler,
		publisher:       builder.publisher,
		now:             builder.now,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Registry:        s.registry,
		Repository:      s.repository,
		Classifier:      s.classifier,
		Scheduler:       s.scheduler,
		Publisher:       s.publisher,
	}
}

// GetMessage loads a persisted message. Absence is reported as
// ErrMessageNotFound.
func (s *Service) GetMessage(ctx context.Context, messageID string) (message Message, err error) {
	startedAt := time.Now().UTC()
	messageID = strings.TrimSpace(messageID)
	fields := map[string]any{"message_id": messageID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_message", err, fields)
	}()

	if messageID == "" {
		err = NewValidationError("", FieldViolation{Path: "id", Reason: "message id is required"})
		return Message{}, err
	}
	message, err = s.repository.FindByID(ctx, messageID)
	if err != nil {
		return Message{}, err
	}
	fields["provider_id"] = string(message.Provider)
	return message, nil
}

func (s *Service) timestamp() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}
