package core

var (
	_ Registry              = (*AdapterRegistry)(nil)
	_ IngestionService      = (*Service)(nil)
	_ ClassificationService = (*Service)(nil)
	_ MessageReader         = (*Service)(nil)
	_ SubscriptionVerifier  = (*Service)(nil)
	_ Classifier            = ClassifierFunc(nil)
	_ MetricsRecorder       = NopMetricsRecorder{}
	_ MetricsRecorder       = (*MemoryMetricsRecorder)(nil)
	_ ConfigProvider        = (*CfgxConfigProvider)(nil)
	_ OptionsResolver       = GoOptionsResolver{}
	_ RawConfigLoader       = YAMLFileLoader{}
	_ RawConfigLoader       = staticRawConfigLoader{}
)
