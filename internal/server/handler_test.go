package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skillpulse/internal/config"
	"skillpulse/internal/engine"
	"skillpulse/internal/errors"
	"skillpulse/internal/observability"
	"skillpulse/internal/types"
)

// fakeEngine is a hand-rolled engine stub for handler tests
type fakeEngine struct {
	question    *types.Question
	questionErr error

	submitResult *engine.SubmitAnswerResult
	submitErr    error
	lastInput    engine.SubmitAnswerInput

	summary    string
	summaryErr error

	feedback    string
	feedbackErr error

	employees []types.Employee
	listErr   error

	lastEmployeeID string
}

func (f *fakeEngine) GetNextQuestion(ctx context.Context, employeeID string) (*types.Question, error) {
	f.lastEmployeeID = employeeID
	return f.question, f.questionErr
}

func (f *fakeEngine) SubmitAnswer(ctx context.Context, input engine.SubmitAnswerInput) (*engine.SubmitAnswerResult, error) {
	f.lastInput = input
	return f.submitResult, f.submitErr
}

func (f *fakeEngine) GetPerformanceSummary(ctx context.Context, employeeID string) (string, error) {
	f.lastEmployeeID = employeeID
	return f.summary, f.summaryErr
}

func (f *fakeEngine) GetFeedback(ctx context.Context, employeeID, question, answer string, options []string) (string, error) {
	f.lastEmployeeID = employeeID
	return f.feedback, f.feedbackErr
}

func (f *fakeEngine) ListEmployees(ctx context.Context) ([]types.Employee, error) {
	return f.employees, f.listErr
}

func testServer(t *testing.T, eng assessmentEngine) (*Server, *observability.ObservabilityManager) {
	t.Helper()

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("Failed to create observability manager: %v", err)
	}

	s := &Server{
		Version:        "test",
		AppConfig:      &config.Config{},
		APIKeys:        map[string]bool{},
		MaxRequestSize: 1 << 20,
		Logger:         errors.NewLogger(slog.LevelError),
		engine:         eng,
	}
	return s, om
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestQuestionHandlerSuccess(t *testing.T) {
	eng := &fakeEngine{
		question: &types.Question{ID: 2, Type: types.QuestionGeneral, Text: "How do you handle conflict?"},
	}
	s, om := testServer(t, eng)

	rec := httptest.NewRecorder()
	s.createQuestionHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/question", QuestionRequest{EmployeeID: "emp-1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if eng.lastEmployeeID != "emp-1" {
		t.Errorf("Employee id not forwarded, got %q", eng.lastEmployeeID)
	}

	var got types.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if got.ID != 2 || got.Text != "How do you handle conflict?" {
		t.Errorf("Unexpected question: %+v", got)
	}
}

func TestQuestionHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "EmployeeNotFound",
			err:        errors.NewNotFoundError(errors.ErrCodeEmployeeNotFound, "Employee not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   errors.ErrCodeEmployeeNotFound,
		},
		{
			name:       "NoQuestions",
			err:        errors.NewNotFoundError(errors.ErrCodeNoQuestionsAvailable, "No questions available for this employee", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   errors.ErrCodeNoQuestionsAvailable,
		},
		{
			name:       "MissingFields",
			err:        errors.NewValidationError(errors.ErrCodeMissingFields, "employeeId is required", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeMissingFields,
		},
		{
			name:       "StoreFailure",
			err:        errors.NewIOError(errors.ErrCodeStoreFailed, "Failed to read history", nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.ErrCodeStoreFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, om := testServer(t, &fakeEngine{questionErr: tt.err})

			rec := httptest.NewRecorder()
			s.createQuestionHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/question", QuestionRequest{EmployeeID: "emp-1"}))

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid error response JSON: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("Expected error code %q, got %q", tt.wantCode, resp.Error)
			}
		})
	}
}

func TestQuestionHandlerRejectsNonJSON(t *testing.T) {
	s, om := testServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/question", strings.NewReader("employeeId=emp-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	s.createQuestionHandler(om)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-JSON content type, got %d", rec.Code)
	}
}

func TestAnswerHandlerForwardsInput(t *testing.T) {
	eng := &fakeEngine{
		submitResult: &engine.SubmitAnswerResult{
			RecordID:          "rec-1",
			SummaryEvolved:    true,
			QuestionGenerated: true,
			Category:          types.QuestionSkill,
		},
	}
	s, om := testServer(t, eng)

	rec := httptest.NewRecorder()
	s.createAnswerHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/answer", AnswerRequest{
		EmployeeID: "emp-1",
		QuestionID: 3,
		Question:   "What is a goroutine?",
		Answer:     "A lightweight thread",
		Result:     "Correct",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if eng.lastInput.EmployeeID != "emp-1" || eng.lastInput.QuestionID != 3 ||
		eng.lastInput.Answer != "A lightweight thread" || eng.lastInput.Result != "Correct" {
		t.Errorf("Input not forwarded correctly: %+v", eng.lastInput)
	}

	var resp engine.SubmitAnswerResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if resp.RecordID != "rec-1" || !resp.SummaryEvolved || !resp.QuestionGenerated {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestSummaryHandler(t *testing.T) {
	s, om := testServer(t, &fakeEngine{summary: "Shows steady growth in Go fundamentals."})

	rec := httptest.NewRecorder()
	s.createSummaryHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/summary", SummaryRequest{EmployeeID: "emp-1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if resp.EmployeeID != "emp-1" || resp.Summary != "Shows steady growth in Go fundamentals." {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestFeedbackHandlerNoFeedbackIs404(t *testing.T) {
	noFeedback := errors.NewAIError(errors.ErrCodeNoFeedback, "No feedback could be generated for this answer", nil)
	s, om := testServer(t, &fakeEngine{feedbackErr: noFeedback})

	rec := httptest.NewRecorder()
	s.createFeedbackHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/feedback", FeedbackRequest{
		EmployeeID: "emp-1",
		Question:   "What is a pod?",
		Answer:     "A container group",
	}))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for no feedback, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid error response JSON: %v", err)
	}
	if resp.Error != errors.ErrCodeNoFeedback {
		t.Errorf("Expected %s, got %q", errors.ErrCodeNoFeedback, resp.Error)
	}
}

func TestFeedbackHandlerSuccess(t *testing.T) {
	s, om := testServer(t, &fakeEngine{feedback: "Close, but a pod can hold several containers."})

	rec := httptest.NewRecorder()
	s.createFeedbackHandler(om)(rec, jsonRequest(t, http.MethodPost, "/api/feedback", FeedbackRequest{
		EmployeeID: "emp-1",
		Question:   "What is a pod?",
		Answer:     "A single container",
		Options:    []string{"A single container", "A group of containers"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp FeedbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if resp.Feedback == "" {
		t.Error("Expected feedback text in response")
	}
}

func TestEmployeesHandler(t *testing.T) {
	s, om := testServer(t, &fakeEngine{employees: []types.Employee{
		{ID: "emp-1", Name: "Ada"},
		{ID: "emp-2", Name: "Grace"},
	}})

	rec := httptest.NewRecorder()
	s.createEmployeesHandler(om)(rec, httptest.NewRequest(http.MethodGet, "/api/employees", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got []types.Employee
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(got) != 2 || got[0].ID != "emp-1" {
		t.Errorf("Unexpected employees: %+v", got)
	}
}

func TestEmployeesHandlerMethodNotAllowed(t *testing.T) {
	s, om := testServer(t, &fakeEngine{})

	rec := httptest.NewRecorder()
	s.createEmployeesHandler(om)(rec, httptest.NewRequest(http.MethodPost, "/api/employees", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for POST, got %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := testServer(t, &fakeEngine{})
	s.APIKeys = map[string]bool{"valid-key-12345": true}

	passed := false
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		passed = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("MissingKey", func(t *testing.T) {
		passed = false
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/question", nil))
		if rec.Code != http.StatusUnauthorized || passed {
			t.Errorf("Expected 401 without key, got %d (passed=%t)", rec.Code, passed)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		passed = false
		req := httptest.NewRequest(http.MethodPost, "/api/question", nil)
		req.Header.Set("X-API-Key", "wrong-key")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusUnauthorized || passed {
			t.Errorf("Expected 401 with wrong key, got %d (passed=%t)", rec.Code, passed)
		}
	})

	t.Run("HeaderKey", func(t *testing.T) {
		passed = false
		req := httptest.NewRequest(http.MethodPost, "/api/question", nil)
		req.Header.Set("X-API-Key", "valid-key-12345")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if !passed {
			t.Errorf("Expected request to pass with valid X-API-Key, got %d", rec.Code)
		}
	})

	t.Run("BearerToken", func(t *testing.T) {
		passed = false
		req := httptest.NewRequest(http.MethodPost, "/api/question", nil)
		req.Header.Set("Authorization", "Bearer valid-key-12345")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if !passed {
			t.Errorf("Expected request to pass with valid Bearer token, got %d", rec.Code)
		}
	})

	t.Run("NoKeysConfigured", func(t *testing.T) {
		s.APIKeys = map[string]bool{}
		passed = false
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/question", nil))
		if !passed {
			t.Errorf("Expected open access without configured keys, got %d", rec.Code)
		}
	})
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	s, om := testServer(t, &fakeEngine{question: &types.Question{ID: 1}})
	s.MaxRequestSize = 64

	handler := s.requestSizeLimitMiddleware()(s.createQuestionHandler(om))

	big := strings.Repeat("x", 256)
	req := jsonRequest(t, http.MethodPost, "/api/question", QuestionRequest{EmployeeID: big})

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized body, got %d", rec.Code)
	}
}

func TestRateLimitMiddlewareBlocks(t *testing.T) {
	s, _ := testServer(t, &fakeEngine{})
	s.RateLimit = &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByIP:           true,
	}
	s.RateLimiter = NewRateLimiter(1, 0, 1, s.Logger)
	defer s.RateLimiter.Close()

	handler := s.rateLimitMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/question", nil)
	req.RemoteAddr = "203.0.113.10:4242"

	first := httptest.NewRecorder()
	handler(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("First request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Second request should be rate limited, got %d", second.Code)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"RemoteAddr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"XForwardedFor", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"XRealIP", "192.0.2.1:1234", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"InvalidForwardedFallsThrough", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
