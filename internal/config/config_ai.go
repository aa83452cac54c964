package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
}

// GetSelectConfig returns the AI configuration for next-question selection
// with fallback to global config
func (c *Config) GetSelectConfig() OperationAIConfig {
	config := c.AI.Select
	c.applyOperationDefaults(&config)
	return config
}

// GetEvolveConfig returns the AI configuration for summary evolution
// with fallback to global config
func (c *Config) GetEvolveConfig() OperationAIConfig {
	config := c.AI.Evolve
	c.applyOperationDefaults(&config)
	return config
}

// GetGenerateConfig returns the AI configuration for question generation
// with fallback to global config
func (c *Config) GetGenerateConfig() OperationAIConfig {
	config := c.AI.Generate
	c.applyOperationDefaults(&config)
	return config
}

// GetSummarizeConfig returns the AI configuration for performance summary
// rendering with fallback to global config
func (c *Config) GetSummarizeConfig() OperationAIConfig {
	config := c.AI.Summarize
	c.applyOperationDefaults(&config)
	return config
}

// GetFeedbackConfig returns the AI configuration for answer feedback with
// fallback to global config
func (c *Config) GetFeedbackConfig() OperationAIConfig {
	config := c.AI.Feedback
	c.applyOperationDefaults(&config)
	return config
}

// AIEnabled reports whether the model-assisted paths are usable at all.
// Without an API key every engine operation degrades to its fallback on
// the first attempt, so callers can skip the network round trip entirely.
func (c *Config) AIEnabled() bool {
	return c.AI.APIKey != ""
}
