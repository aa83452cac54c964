package types

import (
	"encoding/json"
	"time"
)

// QuestionType is the catalog category used by the selection policy
type QuestionType string

const (
	QuestionTechnical QuestionType = "Technical"
	QuestionGeneral   QuestionType = "General"
	QuestionSkill     QuestionType = "Skill"
)

// Result is the recorded outcome of an answered question
type Result string

const (
	ResultCorrect   Result = "Correct"
	ResultIncorrect Result = "Incorrect"
)

// Question is a single assessment question. Catalog questions are shared
// across employees; generated questions are per-employee and overwritten
// by each generation cycle.
type Question struct {
	ID       int          `json:"id"`
	Type     QuestionType `json:"type"`
	SkillTag string       `json:"skillTag,omitempty"`
	Text     string       `json:"text"`
	Options  []string     `json:"options,omitempty"`
	Answer   string       `json:"answer,omitempty"`
}

// AnswerRecord is one entry in an employee's answer ledger. Records are
// append-only and never mutated after creation.
type AnswerRecord struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	QuestionID int       `json:"questionId,omitempty"`
	Result     Result    `json:"result,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// Employee is the assessed person's profile. The selection logic treats
// profile fields as opaque model context.
type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Seniority string `json:"seniority,omitempty"`
	Team      string `json:"team,omitempty"`
}

// EmployeeContext renders the full profile as the JSON fragment model
// prompts embed. Every profile field travels to the model, not just the
// name.
func EmployeeContext(e Employee) string {
	data, err := json.Marshal(e)
	if err != nil {
		return e.Name
	}
	return string(data)
}

// QuestionView is the projection of a Question sent to the model when
// asking it to pick the next question id.
type QuestionView struct {
	ID       int          `json:"id"`
	Type     QuestionType `json:"type"`
	SkillTag string       `json:"skillTag,omitempty"`
	Text     string       `json:"text"`
}

// AnswerView is the projection of an AnswerRecord sent to the model.
type AnswerView struct {
	QuestionID int       `json:"questionId"`
	Result     Result    `json:"result"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// ProjectQuestions builds the model-facing view of a catalog.
func ProjectQuestions(catalog []Question) []QuestionView {
	views := make([]QuestionView, 0, len(catalog))
	for _, q := range catalog {
		views = append(views, QuestionView{
			ID:       q.ID,
			Type:     q.Type,
			SkillTag: q.SkillTag,
			Text:     q.Text,
		})
	}
	return views
}

// ProjectHistory builds the model-facing view of an answer ledger.
func ProjectHistory(history []AnswerRecord) []AnswerView {
	views := make([]AnswerView, 0, len(history))
	for _, rec := range history {
		views = append(views, AnswerView{
			QuestionID: rec.QuestionID,
			Result:     rec.Result,
			AnsweredAt: rec.AnsweredAt,
		})
	}
	return views
}
