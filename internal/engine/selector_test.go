package engine

import (
	"testing"
	"time"

	"skillpulse/internal/types"
)

func TestSelectEmptyCatalog(t *testing.T) {
	if q := Select(nil, nil); q != nil {
		t.Errorf("Expected nil for empty catalog, got %+v", q)
	}
	if q := Select([]types.Question{}, []types.AnswerRecord{{QuestionID: 1}}); q != nil {
		t.Errorf("Expected nil for empty catalog with history, got %+v", q)
	}
}

func TestSelectIncorrectTechnicalFirst(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(1, types.ResultIncorrect, t0),
	}

	q := Select(catalog, history)
	if q == nil || q.ID != 1 {
		t.Fatalf("Expected question 1, got %+v", q)
	}
}

func TestSelectIncorrectTechnicalBeatsUnansweredGeneral(t *testing.T) {
	// Question 3 (Technical, Incorrect) wins over question 2 (General,
	// unanswered) despite the lower id
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(1, types.ResultCorrect, t0),
		answered(3, types.ResultIncorrect, t0.Add(time.Minute)),
	}

	q := Select(catalog, history)
	if q == nil || q.ID != 3 {
		t.Fatalf("Expected question 3, got %+v", q)
	}
}

func TestSelectLowestIncorrectTechnical(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(3, types.ResultIncorrect, t0),
		answered(1, types.ResultIncorrect, t0.Add(time.Minute)),
	}

	q := Select(catalog, history)
	if q == nil || q.ID != 1 {
		t.Fatalf("Expected lowest-id incorrect technical question 1, got %+v", q)
	}
}

func TestSelectUnansweredGeneral(t *testing.T) {
	catalog := threeQuestionCatalog()

	q := Select(catalog, nil)
	if q == nil || q.ID != 2 {
		t.Fatalf("Expected question 2 for empty history, got %+v", q)
	}
}

func TestSelectUnansweredTechnical(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(1, types.ResultCorrect, t0),
		answered(2, types.ResultCorrect, t0.Add(time.Minute)),
	}

	q := Select(catalog, history)
	if q == nil || q.ID != 3 {
		t.Fatalf("Expected question 3, got %+v", q)
	}
}

func TestSelectFallbackToFirstCatalogEntry(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(1, types.ResultCorrect, t0),
		answered(2, types.ResultCorrect, t0.Add(time.Minute)),
		answered(3, types.ResultCorrect, t0.Add(2*time.Minute)),
	}

	q := Select(catalog, history)
	if q == nil || q.ID != catalog[0].ID {
		t.Fatalf("Expected catalog[0] (id %d), got %+v", catalog[0].ID, q)
	}
}

func TestSelectLastWriteWins(t *testing.T) {
	catalog := threeQuestionCatalog()

	t.Run("LaterCorrectClearsIncorrect", func(t *testing.T) {
		history := []types.AnswerRecord{
			answered(1, types.ResultIncorrect, t0),
			answered(1, types.ResultCorrect, t0.Add(time.Hour)),
		}
		q := Select(catalog, history)
		if q == nil || q.ID != 2 {
			t.Fatalf("Expected question 2 after question 1 recovered, got %+v", q)
		}
	})

	t.Run("UnsortedHistory", func(t *testing.T) {
		// Same records, ledger order reversed against timestamps
		history := []types.AnswerRecord{
			answered(1, types.ResultCorrect, t0.Add(time.Hour)),
			answered(1, types.ResultIncorrect, t0),
		}
		q := Select(catalog, history)
		if q == nil || q.ID != 2 {
			t.Fatalf("Select must sort by answered_at, got %+v", q)
		}
	})

	t.Run("TimestampTieKeepsLedgerOrder", func(t *testing.T) {
		history := []types.AnswerRecord{
			answered(1, types.ResultCorrect, t0),
			answered(1, types.ResultIncorrect, t0),
		}
		q := Select(catalog, history)
		if q == nil || q.ID != 1 {
			t.Fatalf("Tie must resolve to the later ledger entry, got %+v", q)
		}
	})
}

func TestSelectIsPureAndOrderIndependent(t *testing.T) {
	catalog := threeQuestionCatalog()
	records := []types.AnswerRecord{
		answered(1, types.ResultIncorrect, t0),
		answered(2, types.ResultCorrect, t0.Add(time.Minute)),
		answered(1, types.ResultCorrect, t0.Add(2*time.Minute)),
		answered(3, types.ResultIncorrect, t0.Add(3*time.Minute)),
	}

	orderings := [][]types.AnswerRecord{
		{records[0], records[1], records[2], records[3]},
		{records[3], records[2], records[1], records[0]},
		{records[1], records[3], records[0], records[2]},
	}

	var want int
	for i, history := range orderings {
		q := Select(catalog, history)
		if q == nil {
			t.Fatalf("Ordering %d returned nil", i)
		}
		if i == 0 {
			want = q.ID
			continue
		}
		if q.ID != want {
			t.Errorf("Ordering %d returned id %d, want %d", i, q.ID, want)
		}
	}
	if want != 3 {
		t.Errorf("Expected question 3 (latest incorrect technical), got %d", want)
	}
}

func TestSelectDoesNotMutateInputs(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		answered(3, types.ResultIncorrect, t0.Add(time.Hour)),
		answered(1, types.ResultCorrect, t0),
	}

	Select(catalog, history)

	if history[0].QuestionID != 3 || history[1].QuestionID != 1 {
		t.Error("Select reordered the caller's history slice")
	}
	if catalog[0].ID != 1 || catalog[2].ID != 3 {
		t.Error("Select modified the caller's catalog slice")
	}
}

func TestSelectIgnoresRecordsWithoutQuestionID(t *testing.T) {
	catalog := threeQuestionCatalog()
	history := []types.AnswerRecord{
		{ID: "free-text", EmployeeID: "emp-1", Answer: "some prose", AnsweredAt: t0},
	}

	q := Select(catalog, history)
	if q == nil || q.ID != 2 {
		t.Fatalf("Free-text records must not count as catalog answers, got %+v", q)
	}
}
