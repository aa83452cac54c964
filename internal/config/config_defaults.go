package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 0) // Each selection/evolution call is attempted exactly once
	v.SetDefault("ai.temperature", 0.7)

	// AI Configuration - Select operation (next-question choice)
	v.SetDefault("ai.select.provider", "gemini")
	v.SetDefault("ai.select.model", "")
	v.SetDefault("ai.select.timeout", 20*time.Second) // Short: the answer is a single id
	v.SetDefault("ai.select.temperature", 0.0)        // Policy output must be deterministic

	// AI Configuration - Evolve operation (summary folding)
	v.SetDefault("ai.evolve.provider", "gemini")
	v.SetDefault("ai.evolve.model", "")
	v.SetDefault("ai.evolve.timeout", 45*time.Second)
	v.SetDefault("ai.evolve.temperature", 0.3)

	// AI Configuration - Generate operation (question synthesis)
	v.SetDefault("ai.generate.provider", "gemini")
	v.SetDefault("ai.generate.model", "")
	v.SetDefault("ai.generate.timeout", 60*time.Second)
	v.SetDefault("ai.generate.temperature", 0.8) // Higher variety for fresh questions

	// AI Configuration - Summarize operation (performance rendering)
	v.SetDefault("ai.summarize.provider", "gemini")
	v.SetDefault("ai.summarize.model", "")
	v.SetDefault("ai.summarize.timeout", 45*time.Second)
	v.SetDefault("ai.summarize.temperature", 0.4)

	// AI Configuration - Feedback operation
	v.SetDefault("ai.feedback.provider", "gemini")
	v.SetDefault("ai.feedback.model", "")
	v.SetDefault("ai.feedback.timeout", 45*time.Second)
	v.SetDefault("ai.feedback.temperature", 0.5)

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"select", "evolve", "generate", "summarize", "feedback"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // Answer submission waits on two model calls
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Store Configuration
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.file.dataDir", "data")
	v.SetDefault("store.redis.addr", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", time.Duration(0))

	// Prompts Configuration
	v.SetDefault("prompts.dir", "")
	v.SetDefault("prompts.watch", false)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.maxRequestSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.aiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "skillpulse")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
