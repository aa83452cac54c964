package server

import (
	"context"
	"time"

	"skillpulse/internal/config"
	"skillpulse/internal/engine"
	skillpulseErrors "skillpulse/internal/errors"
	"skillpulse/internal/prompts"
	"skillpulse/internal/store"
	"skillpulse/internal/types"
)

// QuestionRequest represents the request body for the question endpoint
type QuestionRequest struct {
	EmployeeID string `json:"employeeId"`
}

// AnswerRequest represents the request body for the answer endpoint
type AnswerRequest struct {
	EmployeeID string `json:"employeeId"`
	QuestionID int    `json:"questionId,omitempty"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Result     string `json:"result,omitempty"`
}

// SummaryRequest represents the request body for the summary endpoint
type SummaryRequest struct {
	EmployeeID string `json:"employeeId"`
}

// FeedbackRequest represents the request body for the feedback endpoint
type FeedbackRequest struct {
	EmployeeID string   `json:"employeeId"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Options    []string `json:"options,omitempty"`
}

// SummaryResponse is the response body for the summary endpoint
type SummaryResponse struct {
	EmployeeID string `json:"employeeId"`
	Summary    string `json:"summary"`
}

// FeedbackResponse is the response body for the feedback endpoint
type FeedbackResponse struct {
	EmployeeID string `json:"employeeId"`
	Feedback   string `json:"feedback"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// assessmentEngine is the engine surface the handlers call. Narrowed to
// an interface so handler tests can substitute a fake.
type assessmentEngine interface {
	GetNextQuestion(ctx context.Context, employeeID string) (*types.Question, error)
	SubmitAnswer(ctx context.Context, input engine.SubmitAnswerInput) (*engine.SubmitAnswerResult, error)
	GetPerformanceSummary(ctx context.Context, employeeID string) (string, error)
	GetFeedback(ctx context.Context, employeeID, question, answer string, options []string) (string, error)
	ListEmployees(ctx context.Context) ([]types.Employee, error)
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *skillpulseErrors.Logger

	// Assessment components, built during Start
	engine        assessmentEngine
	store         store.Store
	registry      *prompts.Registry
	promptWatcher *prompts.Watcher
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *skillpulseErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
