package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillpulse/internal/ai"
	"skillpulse/internal/errors"
	"skillpulse/internal/prompts"
	"skillpulse/internal/store"
	"skillpulse/internal/types"
)

// Engine is the adaptive assessment facade the server exposes. Model
// failures inside selection, evolution, and generation always resolve
// to their documented fallbacks; only caller-input and not-found errors
// reach the boundary.
//
// Per-employee state is written without cross-request locking. Two
// concurrent submissions for the same employee can lose a summary
// update; single writer per employee is the operating assumption.
type Engine struct {
	store      store.Store
	selector   *AISelector
	evolver    *Evolver
	generator  *Generator
	summarizer Completer
	feedback   Completer
	registry   *prompts.Registry
	logger     *errors.Logger
	now        func() time.Time
}

// Config wires an Engine. Completer fields may be nil, which disables
// the corresponding model path. Now defaults to time.Now.
type Config struct {
	Store      store.Store
	Selector   *AISelector
	Evolver    *Evolver
	Generator  *Generator
	Summarizer Completer
	Feedback   Completer
	Prompts    *prompts.Registry
	Logger     *errors.Logger
	Now        func() time.Time
}

// New creates an Engine
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:      cfg.Store,
		selector:   cfg.Selector,
		evolver:    cfg.Evolver,
		generator:  cfg.Generator,
		summarizer: cfg.Summarizer,
		feedback:   cfg.Feedback,
		registry:   cfg.Prompts,
		logger:     cfg.Logger,
		now:        now,
	}
}

// GetNextQuestion returns the employee's pending generated question if
// one exists, otherwise selects from the catalog. The answer (and the
// skill-check answer text) is stripped before returning.
func (e *Engine) GetNextQuestion(ctx context.Context, employeeID string) (*types.Question, error) {
	if employeeID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingFields,
			"employeeId is required", nil)
	}

	employee, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if pending, err := e.store.GetPendingQuestion(ctx, employeeID); err == nil {
		return sanitize(pending), nil
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	catalog, err := e.store.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	history, err := e.store.GetHistory(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	summary, err := e.store.GetSummary(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	selection := e.selector.Select(ctx, employee, summary, catalog, history)
	if selection.Question == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeNoQuestionsAvailable,
			"No questions available for this employee", nil)
	}

	if e.logger != nil {
		e.logger.Debug("Question selected",
			"employee_id", employeeID,
			"question_id", selection.Question.ID,
			"source", string(selection.Source))
	}
	return sanitize(selection.Question), nil
}

// SubmitAnswerInput carries one submitted answer. Question text or a
// question id identifies what was answered; Result holds Correct or
// Incorrect, and Answer the free-text response.
type SubmitAnswerInput struct {
	EmployeeID string
	QuestionID int
	Question   string
	Answer     string
	Result     string
}

// SubmitAnswerResult reports what a submission actually did
type SubmitAnswerResult struct {
	RecordID          string             `json:"recordId"`
	SummaryEvolved    bool               `json:"summaryEvolved"`
	QuestionGenerated bool               `json:"questionGenerated"`
	Category          types.QuestionType `json:"category,omitempty"`
}

// SubmitAnswer appends the answer to the ledger, folds it into the
// running summary, and triggers generation of the next pending
// question. The record is written before any model call, so a failed
// evolution or generation never loses the answer itself.
func (e *Engine) SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (*SubmitAnswerResult, error) {
	if input.EmployeeID == "" || (input.Question == "" && input.QuestionID == 0) ||
		(input.Answer == "" && input.Result == "") {
		return nil, errors.NewValidationError(errors.ErrCodeMissingFields,
			"employeeId, question, and answer are required", nil)
	}

	employee, err := e.store.GetEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	record := types.AnswerRecord{
		ID:         uuid.NewString(),
		EmployeeID: input.EmployeeID,
		QuestionID: input.QuestionID,
		Result:     normalizeResult(input.Result),
		Answer:     input.Answer,
		AnsweredAt: e.now().UTC(),
	}
	if err := e.store.AppendAnswer(ctx, record); err != nil {
		return nil, err
	}

	prior, err := e.store.GetSummary(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	evolution := e.evolver.Evolve(ctx, employee, input.Question, input.Answer, record.Result, prior)
	if evolution.Evolved {
		if err := e.store.PutSummary(ctx, input.EmployeeID, evolution.Summary); err != nil {
			return nil, err
		}
	}

	skills, err := e.store.GetSkills(ctx, input.EmployeeID)
	if err != nil {
		skills = nil
	}
	generation := e.generator.GenerateNext(ctx, employee, evolution.Summary, skills)

	return &SubmitAnswerResult{
		RecordID:          record.ID,
		SummaryEvolved:    evolution.Evolved,
		QuestionGenerated: generation.Generated,
		Category:          generation.Category,
	}, nil
}

// GetPerformanceSummary renders the employee's running summary as
// readable report text via one model call, falling back to the raw
// summary on any failure.
func (e *Engine) GetPerformanceSummary(ctx context.Context, employeeID string) (string, error) {
	if employeeID == "" {
		return "", errors.NewValidationError(errors.ErrCodeMissingFields,
			"employeeId is required", nil)
	}

	employee, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}

	raw, err := e.store.GetSummary(ctx, employeeID)
	if err != nil {
		return "", err
	}

	if e.summarizer == nil || raw == "" {
		return raw, nil
	}

	prompt, err := e.registry.Fill(prompts.PerformanceSummary, map[string]string{
		"employee": types.EmployeeContext(*employee),
		"summary":  raw,
	})
	if err != nil {
		return raw, nil
	}

	completion, err := e.summarizer.Complete(ctx, ai.CompletionRequest{
		Operation: "summarize",
		Prompt:    prompt,
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("Summary rendering failed, returning raw summary",
				"employee_id", employeeID, "error", err.Error())
		}
		return raw, nil
	}

	rendered := strings.TrimSpace(completion.Content)
	if rendered == "" {
		return raw, nil
	}
	return rendered, nil
}

// GetFeedback produces feedback text for a single answered question.
// There is no fallback value: when the model path is disabled or the
// call fails, a no-feedback error propagates to the caller.
func (e *Engine) GetFeedback(ctx context.Context, employeeID, question, answer string, options []string) (string, error) {
	if employeeID == "" || question == "" || answer == "" {
		return "", errors.NewValidationError(errors.ErrCodeMissingFields,
			"employeeId, question, and answer are required", nil)
	}

	if _, err := e.store.GetEmployee(ctx, employeeID); err != nil {
		return "", err
	}

	noFeedback := func(cause error) error {
		return errors.NewAIError(errors.ErrCodeNoFeedback,
			"No feedback could be generated for this answer", cause)
	}

	if e.feedback == nil {
		return "", noFeedback(nil)
	}

	prompt, err := e.registry.Fill(prompts.Feedback, map[string]string{
		"question": question,
		"answer":   answer,
		"options":  strings.Join(options, ", "),
	})
	if err != nil {
		return "", noFeedback(err)
	}

	completion, err := e.feedback.Complete(ctx, ai.CompletionRequest{
		Operation: "feedback",
		Prompt:    prompt,
	})
	if err != nil {
		return "", noFeedback(err)
	}

	feedback := strings.TrimSpace(completion.Content)
	if feedback == "" {
		return "", noFeedback(nil)
	}
	return feedback, nil
}

// ListEmployees returns all known employees
func (e *Engine) ListEmployees(ctx context.Context) ([]types.Employee, error) {
	return e.store.ListEmployees(ctx)
}

// sanitize strips grading fields before a question leaves the engine
func sanitize(q *types.Question) *types.Question {
	clean := *q
	clean.Answer = ""
	return &clean
}

// normalizeResult maps free-form result text onto the ledger enum,
// leaving anything else empty so the free-text answer carries the signal
func normalizeResult(result string) types.Result {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "correct":
		return types.ResultCorrect
	case "incorrect":
		return types.ResultIncorrect
	default:
		return ""
	}
}
