package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skillpulse/internal/ai"
	"skillpulse/internal/prompts"
	"skillpulse/internal/store"
	"skillpulse/internal/types"
)

// fakeCompleter is a scripted Completer for engine tests
type fakeCompleter struct {
	response string
	err      error

	calls   int
	lastReq ai.CompletionRequest
	respond func(req ai.CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	f.calls++
	f.lastReq = req

	if f.respond != nil {
		content, err := f.respond(req)
		if err != nil {
			return nil, err
		}
		return &ai.Completion{Content: content}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Completion{Content: f.response}, nil
}

var errModelDown = fmt.Errorf("model unreachable")

func testRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	registry, err := prompts.NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return registry
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func testEmployee(t *testing.T, s store.Store, id string, skills []string) *types.Employee {
	t.Helper()
	emp := types.Employee{ID: id, Name: "Employee " + id, Role: "Engineer"}
	if err := s.PutEmployee(context.Background(), emp, skills); err != nil {
		t.Fatalf("PutEmployee failed: %v", err)
	}
	return &emp
}

// threeQuestionCatalog is the canonical selection fixture:
// two Technical questions around one General question.
func threeQuestionCatalog() []types.Question {
	return []types.Question{
		{ID: 1, Type: types.QuestionTechnical, Text: "T1"},
		{ID: 2, Type: types.QuestionGeneral, Text: "G2"},
		{ID: 3, Type: types.QuestionTechnical, Text: "T3"},
	}
}

func answered(questionID int, result types.Result, at time.Time) types.AnswerRecord {
	return types.AnswerRecord{
		ID:         fmt.Sprintf("rec-%d-%d", questionID, at.Unix()),
		EmployeeID: "emp-1",
		QuestionID: questionID,
		Result:     result,
		AnsweredAt: at,
	}
}

var t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
