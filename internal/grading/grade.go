// Package grading implements the auto-grading rule set: pure functions
// scoring a submitted answer against a question's answer key with
// type-specific comparison semantics. No I/O happens here.
package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// Result is the outcome of grading a single answer. Both fields are nil
// for subjective and unknown question types, which require manual grading.
type Result struct {
	IsCorrect    *bool    `json:"is_correct"`
	MarksAwarded *float64 `json:"marks_awarded"`
}

// Grade scores a submitted answer against an answer key.
//
// Objective types resolve to correct (full marks) or incorrect (zero),
// except match_the_column which can award partial marks while still
// reporting incorrect. Subjective types and unknown types return a nil
// Result so future bank types degrade to manual grading instead of
// breaking scoring.
func Grade(qt model.QuestionType, key model.AnswerKey, marks float64, submitted any) Result {
	switch qt {
	case model.QuestionTypeMCQSingle:
		return scored(gradeMCQSingle(key, submitted), marks)
	case model.QuestionTypeMCQMultiple:
		return scored(gradeMCQMultiple(key, submitted), marks)
	case model.QuestionTypeTrueFalse:
		return scored(gradeTrueFalse(key, submitted), marks)
	case model.QuestionTypeFillInBlank:
		return scored(gradeFillInBlank(key, submitted), marks)
	case model.QuestionTypeNumerical:
		return scored(gradeNumerical(key, submitted), marks)
	case model.QuestionTypeMatchTheColumn:
		return gradeMatchTheColumn(key, marks, submitted)
	default:
		// short_answer, long_answer, essay, creative_writing, and any
		// type this engine does not know about.
		return Result{}
	}
}

// scored converts a boolean verdict into a full-or-nothing Result.
func scored(correct bool, marks float64) Result {
	awarded := 0.0
	if correct {
		awarded = marks
	}
	return Result{IsCorrect: &correct, MarksAwarded: &awarded}
}

func gradeMCQSingle(key model.AnswerKey, submitted any) bool {
	if key.CorrectOptionIndex == nil {
		return false
	}
	idx, ok := toInt(submitted)
	return ok && idx == *key.CorrectOptionIndex
}

// gradeMCQMultiple requires exact set equality: a subset, superset, or
// empty submission is fully incorrect. No partial credit for this type.
func gradeMCQMultiple(key model.AnswerKey, submitted any) bool {
	if len(key.CorrectOptionIndices) == 0 {
		return false
	}
	got, ok := toIndexSet(submitted)
	if !ok || len(got) != len(key.CorrectOptionIndices) {
		return false
	}
	for _, want := range key.CorrectOptionIndices {
		if !got[want] {
			return false
		}
	}
	return true
}

func gradeTrueFalse(key model.AnswerKey, submitted any) bool {
	if key.CorrectBool == nil {
		return false
	}
	b, ok := toBool(submitted)
	return ok && b == *key.CorrectBool
}

// gradeFillInBlank compares case-insensitively with surrounding
// whitespace trimmed. AcceptedAnswers, when present, lists alternatives;
// otherwise CorrectText alone is authoritative.
func gradeFillInBlank(key model.AnswerKey, submitted any) bool {
	raw, ok := toText(submitted)
	if !ok {
		return false
	}
	got := normalizeText(raw)
	if got == "" {
		return false
	}
	if len(key.AcceptedAnswers) > 0 {
		for _, alt := range key.AcceptedAnswers {
			if got == normalizeText(alt) {
				return true
			}
		}
		return false
	}
	return got == normalizeText(key.CorrectText)
}

// gradeNumerical treats tolerance as an absolute band around the correct
// value; the zero default gives exact-match semantics. Non-numeric
// submissions are incorrect.
func gradeNumerical(key model.AnswerKey, submitted any) bool {
	if key.CorrectValue == nil {
		return false
	}
	got, ok := toFloat(submitted)
	if !ok {
		return false
	}
	return math.Abs(got-*key.CorrectValue) <= key.Tolerance
}

// gradeMatchTheColumn awards marks proportionally to the matched pair
// count, rounded half-up. IsCorrect is true only for a perfect match, so
// a partially-credited answer still reports incorrect. That asymmetry is
// deliberate product behavior.
func gradeMatchTheColumn(key model.AnswerKey, marks float64, submitted any) Result {
	total := len(key.CorrectPairs)
	if total == 0 {
		return scored(false, marks)
	}

	got, ok := toPairs(submitted)
	if !ok {
		return scored(false, marks)
	}

	matched := 0
	for k, want := range key.CorrectPairs {
		if got[k] == want {
			matched++
		}
	}

	ratio := float64(matched) / float64(total)
	correct := matched == total
	awarded := roundHalfUp(marks * ratio)
	return Result{IsCorrect: &correct, MarksAwarded: &awarded}
}

// roundHalfUp rounds to the nearest integer, ties away from zero toward
// positive infinity (0.5 -> 1).
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ── submitted-value coercion ────────────────────────────────────────────
//
// Submitted answers arrive as decoded JSON, so the concrete Go types are
// float64, bool, string, []any, and map[string]any. The coercers below
// accept those plus the native Go types tests construct directly.

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toIndexSet(v any) (map[int]bool, bool) {
	set := make(map[int]bool)
	switch s := v.(type) {
	case []any:
		for _, el := range s {
			idx, ok := toInt(el)
			if !ok {
				return nil, false
			}
			set[idx] = true
		}
	case []int:
		for _, idx := range s {
			set[idx] = true
		}
	case []float64:
		for _, el := range s {
			idx, ok := toInt(el)
			if !ok {
				return nil, false
			}
			set[idx] = true
		}
	default:
		return nil, false
	}
	return set, true
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch normalizeText(b) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func toText(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toPairs(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		pairs := make(map[string]string, len(m))
		for k, el := range m {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			pairs[k] = s
		}
		return pairs, true
	default:
		return nil, false
	}
}
