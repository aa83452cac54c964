package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"skillpulse/internal/types"
)

func TestEvolverIdentityOnFailure(t *testing.T) {
	emp := &types.Employee{ID: "emp-1", Name: "Ada"}

	priors := []string{
		"",
		"Knows TCP well.",
		"A long summary\nwith multiple lines.",
	}

	for _, prior := range priors {
		evolver := NewEvolver(&fakeCompleter{err: errModelDown}, testRegistry(t), nil)
		evo := evolver.Evolve(context.Background(), emp, "Q?", "A", types.ResultCorrect, prior)
		if evo.Evolved {
			t.Errorf("Prior %q: expected Evolved=false on failure", prior)
		}
		if evo.Summary != prior {
			t.Errorf("Prior %q: summary changed to %q on failure", prior, evo.Summary)
		}
	}
}

func TestEvolverIdentityOnEmptyResponse(t *testing.T) {
	emp := &types.Employee{ID: "emp-1", Name: "Ada"}
	evolver := NewEvolver(&fakeCompleter{response: "  \n "}, testRegistry(t), nil)

	evo := evolver.Evolve(context.Background(), emp, "Q?", "A", types.ResultIncorrect, "prior text")
	if evo.Evolved || evo.Summary != "prior text" {
		t.Errorf("Empty response must keep prior summary, got %+v", evo)
	}
}

func TestEvolverNilCompleter(t *testing.T) {
	emp := &types.Employee{ID: "emp-1", Name: "Ada"}
	evolver := NewEvolver(nil, testRegistry(t), nil)

	evo := evolver.Evolve(context.Background(), emp, "Q?", "A", types.ResultCorrect, "prior")
	if evo.Evolved || evo.Summary != "prior" {
		t.Errorf("Nil completer must be identity, got %+v", evo)
	}
}

func TestEvolverSuccessReplacesSummary(t *testing.T) {
	emp := &types.Employee{ID: "emp-1", Name: "Ada", Role: "Backend Engineer", Team: "Platform"}
	completer := &fakeCompleter{response: "Ada now shows solid grasp of TCP.\n"}
	evolver := NewEvolver(completer, testRegistry(t), nil)

	evo := evolver.Evolve(context.Background(), emp, "What does TCP stand for?", "Transmission Control Protocol", types.ResultCorrect, "Ada is untested.")
	if !evo.Evolved {
		t.Fatal("Expected Evolved=true on success")
	}
	if evo.Summary != "Ada now shows solid grasp of TCP." {
		t.Errorf("Expected trimmed model output, got %q", evo.Summary)
	}

	// Instructions travel as the system message, context as a JSON
	// user message carrying the whole profile
	if !strings.Contains(completer.lastReq.System, "running performance summary") {
		t.Errorf("System message does not look like the evolution template: %q", completer.lastReq.System)
	}
	doc := completer.lastReq.Prompt
	for _, want := range []string{"Ada", "Backend Engineer", "Platform", "Ada is untested.", "What does TCP stand for?", "Transmission Control Protocol", "Correct"} {
		if !strings.Contains(doc, want) {
			t.Errorf("Context document missing %q", want)
		}
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Errorf("User message is not valid JSON: %v", err)
	}
	if completer.lastReq.Operation != "evolve" {
		t.Errorf("Expected evolve operation, got %q", completer.lastReq.Operation)
	}
}

func TestEvolverCallsModelOnce(t *testing.T) {
	emp := &types.Employee{ID: "emp-1", Name: "Ada"}
	completer := &fakeCompleter{err: errModelDown}
	evolver := NewEvolver(completer, testRegistry(t), nil)

	evolver.Evolve(context.Background(), emp, "Q?", "A", types.ResultCorrect, "prior")
	if completer.calls != 1 {
		t.Errorf("Expected exactly one attempt, got %d", completer.calls)
	}
}
