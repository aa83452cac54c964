package engine

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"skillpulse/internal/ai"
	"skillpulse/internal/errors"
	"skillpulse/internal/prompts"
	"skillpulse/internal/types"
)

// Completer is the slice of the AI service the engine consumes. A nil
// Completer means the model path is disabled and every operation
// degrades to its fallback immediately.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error)
}

// SelectionSource records which path produced a selection
type SelectionSource string

const (
	SourceModel    SelectionSource = "model"
	SourceFallback SelectionSource = "fallback"
)

// Selection is the outcome of a model-assisted selection attempt.
// Question is nil only when the catalog is empty.
type Selection struct {
	Question *types.Question
	Source   SelectionSource
}

// AISelector asks the model to pick the next question id under the same
// priority policy as Select, falling back to Select on any failure. The
// model path never surfaces an error to the caller.
type AISelector struct {
	completer Completer
	registry  *prompts.Registry
	logger    *errors.Logger
}

// NewAISelector creates a selector. completer may be nil.
func NewAISelector(completer Completer, registry *prompts.Registry, logger *errors.Logger) *AISelector {
	return &AISelector{completer: completer, registry: registry, logger: logger}
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// Select picks the next question for the employee. The model is asked
// exactly once; every failure mode resolves to the deterministic policy.
func (s *AISelector) Select(ctx context.Context, employee *types.Employee, summary string, catalog []types.Question, history []types.AnswerRecord) Selection {
	fallback := func() Selection {
		return Selection{Question: Select(catalog, history), Source: SourceFallback}
	}

	if s.completer == nil || len(catalog) == 0 {
		return fallback()
	}

	prompt, err := s.buildPrompt(employee, summary, catalog, history)
	if err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Failed to build selection prompt", "employee_id", employee.ID)
		}
		return fallback()
	}

	completion, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Operation: "select",
		Prompt:    prompt,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Model selection failed, using deterministic policy",
				"employee_id", employee.ID, "error", err.Error())
		}
		return fallback()
	}

	id, ok := parseQuestionID(completion.Content)
	if !ok {
		if s.logger != nil {
			parseErr := errors.NewAIError(errors.ErrCodeAIResponseInvalid,
				"Model selection response is not a question id", nil)
			s.logger.LogError(parseErr, "Model selection response not parseable, using deterministic policy",
				"employee_id", employee.ID, "response", completion.Content)
		}
		return fallback()
	}

	for i := range catalog {
		if catalog[i].ID == id {
			q := catalog[i]
			return Selection{Question: &q, Source: SourceModel}
		}
	}

	if s.logger != nil {
		s.logger.Warn("Model selected an id not in the catalog, using deterministic policy",
			"employee_id", employee.ID, "selected_id", id)
	}
	return fallback()
}

// parseQuestionID extracts a question id from the model's response:
// first an exact integer parse of the trimmed body, then the first run
// of digits found anywhere in the text.
func parseQuestionID(response string) (int, bool) {
	trimmed := strings.TrimSpace(response)
	if id, err := strconv.Atoi(trimmed); err == nil {
		return id, true
	}

	if run := digitRun.FindString(trimmed); run != "" {
		if id, err := strconv.Atoi(run); err == nil {
			return id, true
		}
	}

	return 0, false
}

func (s *AISelector) buildPrompt(employee *types.Employee, summary string, catalog []types.Question, history []types.AnswerRecord) (string, error) {
	catalogJSON, err := json.Marshal(types.ProjectQuestions(catalog))
	if err != nil {
		return "", err
	}
	historyJSON, err := json.Marshal(types.ProjectHistory(history))
	if err != nil {
		return "", err
	}

	return s.registry.Fill(prompts.SelectQuestion, map[string]string{
		"employee": types.EmployeeContext(*employee),
		"summary":  summary,
		"catalog":  string(catalogJSON),
		"history":  string(historyJSON),
	})
}
