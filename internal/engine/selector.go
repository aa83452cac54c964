package engine

import (
	"sort"

	"skillpulse/internal/types"
)

// Select picks the next question for an employee from the shared
// catalog. It is a pure function of its inputs and applies, in strict
// order, the first non-empty candidate set:
//
//  1. Technical questions whose most recent result is Incorrect, lowest id
//  2. General questions never answered, lowest id
//  3. Technical questions never answered, lowest id
//  4. The first question in catalog order
//
// Returns nil only when the catalog is empty. Neither input slice is
// mutated.
func Select(catalog []types.Question, history []types.AnswerRecord) *types.Question {
	if len(catalog) == 0 {
		return nil
	}

	latest := latestResults(history)

	if q := lowestID(catalog, func(q types.Question) bool {
		result, answered := latest[q.ID]
		return q.Type == types.QuestionTechnical && answered && result == types.ResultIncorrect
	}); q != nil {
		return q
	}

	if q := lowestID(catalog, func(q types.Question) bool {
		_, answered := latest[q.ID]
		return q.Type == types.QuestionGeneral && !answered
	}); q != nil {
		return q
	}

	if q := lowestID(catalog, func(q types.Question) bool {
		_, answered := latest[q.ID]
		return q.Type == types.QuestionTechnical && !answered
	}); q != nil {
		return q
	}

	first := catalog[0]
	return &first
}

// latestResults reduces the ledger to the most recent result per
// question id. The ledger is copied and stably sorted by answered_at
// ascending first, so later entries win and same-timestamp ties keep
// ledger order. Records without a question id carry no catalog signal
// and are ignored.
func latestResults(history []types.AnswerRecord) map[int]types.Result {
	sorted := make([]types.AnswerRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AnsweredAt.Before(sorted[j].AnsweredAt)
	})

	latest := make(map[int]types.Result, len(sorted))
	for _, rec := range sorted {
		if rec.QuestionID == 0 {
			continue
		}
		latest[rec.QuestionID] = rec.Result
	}
	return latest
}

// lowestID returns a copy of the matching question with the lowest id,
// or nil when nothing matches
func lowestID(catalog []types.Question, match func(types.Question) bool) *types.Question {
	var best *types.Question
	for i := range catalog {
		if !match(catalog[i]) {
			continue
		}
		if best == nil || catalog[i].ID < best.ID {
			best = &catalog[i]
		}
	}
	if best == nil {
		return nil
	}
	q := *best
	return &q
}
