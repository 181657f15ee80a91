package params

type jsConverterConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSConverterOption configures the JS converters.
type JSConverterOption func(*jsConverterConfig)

// JSWithProgramCache applies a ProgramCache to the JS converters.
func JSWithProgramCache(cache ProgramCache) JSConverterOption {
	return func(cfg *jsConverterConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS converters.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSConverterOption {
	return func(cfg *jsConverterConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSConverterOptions(opts []JSConverterOption) jsConverterConfig {
	cfg := jsConverterConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
