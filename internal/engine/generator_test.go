package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"skillpulse/internal/errors"
	"skillpulse/internal/types"
)

func fixedIntn(value int) func(int) int {
	return func(n int) int { return value % n }
}

func TestGeneratorCategoryDispatch(t *testing.T) {
	tests := []struct {
		draw     int
		category types.QuestionType
		marker   string
	}{
		{0, types.QuestionTechnical, "technical question"},
		{1, types.QuestionSkill, "declared skill"},
		{2, types.QuestionGeneral, "workplace-judgement"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			s := testStore(t)
			emp := testEmployee(t, s, "emp-1", []string{"Go"})
			completer := &fakeCompleter{response: `{"question":"Q?","options":["a","b"],"answer":"a"}`}
			gen := NewGenerator(completer, testRegistry(t), s, fixedIntn(tt.draw), nil)

			result := gen.GenerateNext(context.Background(), emp, "summary", []string{"Go"})
			if result.Category != tt.category {
				t.Errorf("Draw %d: expected category %s, got %s", tt.draw, tt.category, result.Category)
			}
			if !result.Generated {
				t.Errorf("Draw %d: expected Generated=true", tt.draw)
			}
			if !strings.Contains(completer.lastReq.Prompt, tt.marker) {
				t.Errorf("Draw %d: prompt does not look like the %s template", tt.draw, tt.category)
			}
		})
	}
}

func TestGeneratorPersistsPendingQuestion(t *testing.T) {
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", []string{"Kubernetes", "Go"})
	completer := &fakeCompleter{
		response: `{"question":"What is a pod?","options":["VM","Smallest deployable unit","Node","Cluster"],"answer":"Smallest deployable unit"}`,
	}
	gen := NewGenerator(completer, testRegistry(t), s, fixedIntn(1), nil)

	result := gen.GenerateNext(context.Background(), emp, "Weak on container basics.", []string{"Kubernetes", "Go"})
	if !result.Generated {
		t.Fatal("Expected Generated=true")
	}

	pending, err := s.GetPendingQuestion(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("GetPendingQuestion failed: %v", err)
	}
	if pending.Text != "What is a pod?" {
		t.Errorf("Unexpected pending text: %q", pending.Text)
	}
	if pending.Type != types.QuestionSkill {
		t.Errorf("Expected Skill type, got %s", pending.Type)
	}
	if pending.Answer != "Smallest deployable unit" {
		t.Errorf("Answer not persisted: %q", pending.Answer)
	}
	if len(pending.Options) != 4 {
		t.Errorf("Options not persisted: %v", pending.Options)
	}
	if pending.SkillTag != "Kubernetes" {
		t.Errorf("Expected skill tag from declared skills, got %q", pending.SkillTag)
	}

	// The skill prompt names the declared skills and the profile
	if !strings.Contains(completer.lastReq.Prompt, "Kubernetes, Go") {
		t.Error("Skill prompt missing declared skills")
	}
	if !strings.Contains(completer.lastReq.Prompt, "Engineer") {
		t.Error("Skill prompt missing employee profile")
	}
	if !completer.lastReq.JSON {
		t.Error("Generation request should ask for JSON output")
	}
}

func TestGeneratorFailureKeepsPriorPending(t *testing.T) {
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", nil)
	ctx := context.Background()

	prior := types.Question{ID: 7, Type: types.QuestionGeneral, Text: "Prior question"}
	if err := s.PutPendingQuestion(ctx, "emp-1", prior); err != nil {
		t.Fatalf("PutPendingQuestion failed: %v", err)
	}

	gen := NewGenerator(&fakeCompleter{err: errModelDown}, testRegistry(t), s, fixedIntn(0), nil)
	result := gen.GenerateNext(ctx, emp, "summary", nil)
	if result.Generated {
		t.Error("Expected Generated=false on model failure")
	}

	pending, err := s.GetPendingQuestion(ctx, "emp-1")
	if err != nil {
		t.Fatalf("GetPendingQuestion failed: %v", err)
	}
	if pending.Text != "Prior question" {
		t.Errorf("Prior pending question was replaced: %+v", pending)
	}
}

func TestGeneratorMalformedJSONDropsAttempt(t *testing.T) {
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", nil)
	ctx := context.Background()

	for _, response := range []string{"not json at all", `{"options":["a"]}`, ""} {
		gen := NewGenerator(&fakeCompleter{response: response}, testRegistry(t), s, fixedIntn(2), nil)
		result := gen.GenerateNext(ctx, emp, "summary", nil)
		if result.Generated {
			t.Errorf("Response %q: expected dropped generation", response)
		}
	}

	if _, err := s.GetPendingQuestion(ctx, "emp-1"); !errors.IsNotFound(err) {
		t.Errorf("Nothing should have been persisted, got %v", err)
	}
}

func TestGeneratorMalformedJSONLogsParseFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := errors.NewLoggerWithWriter(&buf, slog.LevelError)
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", nil)

	gen := NewGenerator(&fakeCompleter{response: "not json at all"}, testRegistry(t), s, fixedIntn(2), logger)
	result := gen.GenerateNext(context.Background(), emp, "summary", nil)
	if result.Generated {
		t.Fatal("Expected dropped generation")
	}
	if !strings.Contains(buf.String(), errors.ErrCodeAIResponseInvalid) {
		t.Errorf("Parse failure log missing %s: %s", errors.ErrCodeAIResponseInvalid, buf.String())
	}
}

func TestGeneratorNilCompleterIsNoOp(t *testing.T) {
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", nil)

	gen := NewGenerator(nil, testRegistry(t), s, fixedIntn(0), nil)
	result := gen.GenerateNext(context.Background(), emp, "summary", nil)
	if result.Generated {
		t.Error("Expected no generation with nil completer")
	}
	if result.Category != types.QuestionTechnical {
		t.Errorf("Category should still be drawn, got %s", result.Category)
	}
}

func TestGeneratorOverwritesPendingOnSuccess(t *testing.T) {
	s := testStore(t)
	emp := testEmployee(t, s, "emp-1", nil)
	ctx := context.Background()

	if err := s.PutPendingQuestion(ctx, "emp-1", types.Question{Text: "Old"}); err != nil {
		t.Fatalf("PutPendingQuestion failed: %v", err)
	}

	completer := &fakeCompleter{response: `{"question":"New","options":[],"answer":""}`}
	gen := NewGenerator(completer, testRegistry(t), s, fixedIntn(0), nil)
	result := gen.GenerateNext(ctx, emp, "summary", nil)
	if !result.Generated {
		t.Fatal("Expected Generated=true")
	}

	pending, err := s.GetPendingQuestion(ctx, "emp-1")
	if err != nil {
		t.Fatalf("GetPendingQuestion failed: %v", err)
	}
	if pending.Text != "New" {
		t.Errorf("Pending question not overwritten: %+v", pending)
	}
}
