package engine

import (
	"context"
	"encoding/json"
	"strings"

	"skillpulse/internal/ai"
	"skillpulse/internal/errors"
	"skillpulse/internal/prompts"
	"skillpulse/internal/types"
)

// Evolution is the outcome of a summary evolution attempt. When Evolved
// is false, Summary is the prior summary unchanged.
type Evolution struct {
	Summary string
	Evolved bool
}

// evolutionContext is the JSON document sent as the user message. The
// instructions travel separately as the system message.
type evolutionContext struct {
	Employee types.Employee `json:"employee"`
	Summary  string         `json:"summary"`
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Result   types.Result   `json:"result,omitempty"`
}

// Evolver folds a newly answered question into the employee's running
// performance summary. Failure is an identity fallback: the prior
// summary comes back untouched, never an empty string or an error.
type Evolver struct {
	completer Completer
	registry  *prompts.Registry
	logger    *errors.Logger
}

// NewEvolver creates an evolver. completer may be nil.
func NewEvolver(completer Completer, registry *prompts.Registry, logger *errors.Logger) *Evolver {
	return &Evolver{completer: completer, registry: registry, logger: logger}
}

// Evolve produces the updated summary. The evolution template is the
// system message and the answer context goes as a JSON user message.
// The model output is taken verbatim; the summary is opaque prose, not
// structured data.
func (e *Evolver) Evolve(ctx context.Context, employee *types.Employee, question, answer string, result types.Result, priorSummary string) Evolution {
	identity := Evolution{Summary: priorSummary, Evolved: false}

	if e.completer == nil {
		return identity
	}

	system, err := e.registry.Get(prompts.EvolveSummary)
	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "Failed to load evolution template", "employee_id", employee.ID)
		}
		return identity
	}

	doc, err := json.Marshal(evolutionContext{
		Employee: *employee,
		Summary:  priorSummary,
		Question: question,
		Answer:   answer,
		Result:   result,
	})
	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "Failed to build evolution context", "employee_id", employee.ID)
		}
		return identity
	}

	completion, err := e.completer.Complete(ctx, ai.CompletionRequest{
		Operation: "evolve",
		System:    system,
		Prompt:    string(doc),
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("Summary evolution failed, keeping prior summary",
				"employee_id", employee.ID, "error", err.Error())
		}
		return identity
	}

	updated := strings.TrimSpace(completion.Content)
	if updated == "" {
		if e.logger != nil {
			e.logger.Warn("Summary evolution returned empty text, keeping prior summary",
				"employee_id", employee.ID)
		}
		return identity
	}

	return Evolution{Summary: updated, Evolved: true}
}
