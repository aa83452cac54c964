package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"skillpulse/internal/engine"
	skillpulseErrors "skillpulse/internal/errors"
	"skillpulse/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// writeEngineError maps engine errors onto HTTP status codes. Validation
// errors are the caller's fault, not-found and no-feedback outcomes are
// 404s, everything else is a 500.
func writeEngineError(w http.ResponseWriter, span oteltrace.Span, err error) {
	span.RecordError(err)

	status := http.StatusInternalServerError
	errType := "internal"
	switch {
	case skillpulseErrors.IsValidation(err):
		status = http.StatusBadRequest
		errType = "validation"
	case skillpulseErrors.IsNotFound(err),
		skillpulseErrors.CodeOf(err) == skillpulseErrors.ErrCodeNoFeedback:
		status = http.StatusNotFound
		errType = "not_found"
	}
	span.SetAttributes(attribute.String("error.type", errType))

	var appErr *skillpulseErrors.AppError
	if stderrors.As(err, &appErr) {
		writeErrorResponse(w, appErr.Code, appErr.Message, status)
		return
	}
	writeErrorResponse(w, "Request failed", err.Error(), status)
}

// createQuestionHandler wraps the next-question handler with observability
func (s *Server) createQuestionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillpulse.api")
		ctx, span := tracer.Start(ctx, "api.question")
		defer span.End()

		var req QuestionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("employee.id", req.EmployeeID),
			attribute.String("operation", "question"),
		)

		metrics := om.GetMetrics()
		question, err := s.engine.GetNextQuestion(ctx, strings.TrimSpace(req.EmployeeID))
		if err != nil {
			metrics.RecordBusinessMetric(ctx, "question_served", false, om)
			writeEngineError(w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "question_served", true, om,
			attribute.Int("question.id", question.ID),
			attribute.String("question.type", string(question.Type)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("question.id", question.ID),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(question); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createAnswerHandler wraps the answer submission handler with observability
func (s *Server) createAnswerHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillpulse.api")
		ctx, span := tracer.Start(ctx, "api.answer")
		defer span.End()

		var req AnswerRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("employee.id", req.EmployeeID),
			attribute.Int("question.id", req.QuestionID),
			attribute.String("operation", "answer"),
		)

		input := engine.SubmitAnswerInput{
			EmployeeID: strings.TrimSpace(req.EmployeeID),
			QuestionID: req.QuestionID,
			Question:   req.Question,
			Answer:     req.Answer,
			Result:     req.Result,
		}

		metrics := om.GetMetrics()
		result, err := s.engine.SubmitAnswer(ctx, input)
		if err != nil {
			metrics.RecordBusinessMetric(ctx, "answer_recorded", false, om)
			writeEngineError(w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "answer_recorded", true, om,
			attribute.Bool("summary.evolved", result.SummaryEvolved),
			attribute.Bool("question.generated", result.QuestionGenerated))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("summary.evolved", result.SummaryEvolved),
			attribute.Bool("question.generated", result.QuestionGenerated),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createSummaryHandler wraps the performance summary handler with observability
func (s *Server) createSummaryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillpulse.api")
		ctx, span := tracer.Start(ctx, "api.summary")
		defer span.End()

		var req SummaryRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("employee.id", req.EmployeeID),
			attribute.String("operation", "summary"),
		)

		metrics := om.GetMetrics()
		employeeID := strings.TrimSpace(req.EmployeeID)
		summary, err := s.engine.GetPerformanceSummary(ctx, employeeID)
		if err != nil {
			metrics.RecordBusinessMetric(ctx, "summary_generated", false, om)
			writeEngineError(w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "summary_generated", true, om,
			attribute.Int("summary.length", len(summary)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("summary.length", len(summary)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(SummaryResponse{EmployeeID: employeeID, Summary: summary}); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createFeedbackHandler wraps the feedback handler with observability
func (s *Server) createFeedbackHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillpulse.api")
		ctx, span := tracer.Start(ctx, "api.feedback")
		defer span.End()

		var req FeedbackRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("employee.id", req.EmployeeID),
			attribute.String("operation", "feedback"),
		)

		metrics := om.GetMetrics()
		employeeID := strings.TrimSpace(req.EmployeeID)
		feedback, err := s.engine.GetFeedback(ctx, employeeID, req.Question, req.Answer, req.Options)
		if err != nil {
			metrics.RecordBusinessMetric(ctx, "feedback_generated", false, om)
			writeEngineError(w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "feedback_generated", true, om,
			attribute.Int("feedback.length", len(feedback)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("feedback.length", len(feedback)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(FeedbackResponse{EmployeeID: employeeID, Feedback: feedback}); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createEmployeesHandler wraps the employee listing handler with observability
func (s *Server) createEmployeesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("skillpulse.api")
		ctx, span := tracer.Start(ctx, "api.employees")
		defer span.End()

		employees, err := s.engine.ListEmployees(ctx)
		if err != nil {
			writeEngineError(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("employee.count", len(employees)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(employees); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
