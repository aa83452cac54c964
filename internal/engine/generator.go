package engine

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"

	"skillpulse/internal/ai"
	"skillpulse/internal/errors"
	"skillpulse/internal/prompts"
	"skillpulse/internal/store"
	"skillpulse/internal/types"
)

// Generation is the outcome of a question generation attempt. When
// Generated is false nothing was persisted and any prior pending
// question remains in place.
type Generation struct {
	Generated bool
	Category  types.QuestionType
}

// generatedQuestion is the JSON shape the model is asked to produce
type generatedQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Generator synthesizes a brand-new question for an employee and
// persists it as their single pending question. The category is drawn
// uniformly at random; the random source is injected so tests can
// supply deterministic draws. Failure is a silent no-op: log and keep
// whatever pending question was already there.
type Generator struct {
	completer Completer
	registry  *prompts.Registry
	store     store.Store
	intn      func(n int) int
	logger    *errors.Logger
}

// NewGenerator creates a generator. completer may be nil; intn defaults
// to math/rand when nil.
func NewGenerator(completer Completer, registry *prompts.Registry, st store.Store, intn func(n int) int, logger *errors.Logger) *Generator {
	if intn == nil {
		intn = rand.Intn
	}
	return &Generator{
		completer: completer,
		registry:  registry,
		store:     st,
		intn:      intn,
		logger:    logger,
	}
}

// GenerateNext draws a category, asks the model for one new question of
// that category, and overwrites the employee's pending question on
// success. Exactly one model call is made per invocation.
func (g *Generator) GenerateNext(ctx context.Context, employee *types.Employee, summary string, skills []string) Generation {
	var category types.QuestionType
	var template string

	switch g.intn(3) {
	case 0:
		category, template = types.QuestionTechnical, prompts.TechnicalQuestion
	case 1:
		category, template = types.QuestionSkill, prompts.SkillQuestion
	default:
		category, template = types.QuestionGeneral, prompts.GeneralQuestion
	}

	result := Generation{Generated: false, Category: category}

	if g.completer == nil {
		return result
	}

	prompt, err := g.registry.Fill(template, map[string]string{
		"employee": types.EmployeeContext(*employee),
		"summary":  summary,
		"skills":   strings.Join(skills, ", "),
	})
	if err != nil {
		if g.logger != nil {
			g.logger.LogError(err, "Failed to build generation prompt",
				"employee_id", employee.ID, "category", string(category))
		}
		return result
	}

	completion, err := g.completer.Complete(ctx, ai.CompletionRequest{
		Operation: "generate",
		Prompt:    prompt,
		JSON:      true,
	})
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("Question generation failed, keeping prior pending question",
				"employee_id", employee.ID, "category", string(category), "error", err.Error())
		}
		return result
	}

	var generated generatedQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(completion.Content)), &generated); err != nil || generated.Question == "" {
		if g.logger != nil {
			parseErr := errors.NewAIError(errors.ErrCodeAIResponseInvalid,
				"Generated question is not a valid question document", err)
			g.logger.LogError(parseErr, "Generated question not parseable, dropping generation attempt",
				"employee_id", employee.ID, "category", string(category))
		}
		return result
	}

	pending := types.Question{
		Type:    category,
		Text:    generated.Question,
		Options: generated.Options,
		Answer:  generated.Answer,
	}
	if category == types.QuestionSkill && len(skills) > 0 {
		pending.SkillTag = skills[0]
	}

	if err := g.store.PutPendingQuestion(ctx, employee.ID, pending); err != nil {
		if g.logger != nil {
			g.logger.LogError(err, "Failed to persist generated question",
				"employee_id", employee.ID, "category", string(category))
		}
		return result
	}

	result.Generated = true
	return result
}
