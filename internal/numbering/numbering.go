// Package numbering is the pure structural engine for sections: it
// inserts, removes, swaps, and reorders question references while keeping
// question numbers contiguous 1..N, and computes paper aggregates. It
// returns the usage-counter deltas its mutations imply; issuing them is
// the caller's job. Inputs are never partially mutated on failure.
package numbering

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// AddQuestions appends refs to the section, assigning question numbers
// sequentially from max(existing)+1 in the given order. Returns the
// question ids whose usage count must be incremented, one entry per
// appended reference.
func AddQuestions(sec *model.Section, refs []model.QuestionRef) []uuid.UUID {
	next := maxNumber(sec) + 1

	incremented := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		ref.QuestionNumber = next
		next++
		sec.Questions = append(sec.Questions, ref)
		incremented = append(incremented, ref.QuestionID)
	}
	return incremented
}

// RemoveQuestion deletes the reference carrying the given question number
// and renumbers the remainder, in their current relative order, back to
// contiguous 1..N. Returns the removed question id for a usage decrement.
func RemoveQuestion(sec *model.Section, number int) (uuid.UUID, error) {
	pos := findNumber(sec, number)
	if pos < 0 {
		return uuid.Nil, apperr.NotFound("question number", strconv.Itoa(number))
	}

	removed := sec.Questions[pos].QuestionID
	sec.Questions = append(sec.Questions[:pos], sec.Questions[pos+1:]...)
	renumber(sec)
	return removed, nil
}

// SwapQuestion replaces the reference at the given question number in
// place: number and slice position are unchanged. Returns the old and new
// question ids for a decrement/increment pair.
func SwapQuestion(sec *model.Section, number int, newID uuid.UUID, newMarks float64) (uuid.UUID, error) {
	pos := findNumber(sec, number)
	if pos < 0 {
		return uuid.Nil, apperr.NotFound("question number", strconv.Itoa(number))
	}

	old := sec.Questions[pos].QuestionID
	sec.Questions[pos].QuestionID = newID
	sec.Questions[pos].Marks = newMarks
	return old, nil
}

// Reorder permutes the display order of references to follow the given
// sequence of question numbers. Numbers are a stable identity and are not
// rewritten; the order must contain exactly the section's number set.
func Reorder(sec *model.Section, order []int) error {
	if len(order) != len(sec.Questions) {
		return apperr.Validationf("order must list all %d question numbers", len(sec.Questions))
	}

	byNumber := make(map[int]model.QuestionRef, len(sec.Questions))
	for _, ref := range sec.Questions {
		byNumber[ref.QuestionNumber] = ref
	}

	reordered := make([]model.QuestionRef, 0, len(order))
	seen := make(map[int]bool, len(order))
	for _, n := range order {
		ref, ok := byNumber[n]
		if !ok || seen[n] {
			return apperr.Validationf("order does not match the section's question numbers")
		}
		seen[n] = true
		reordered = append(reordered, ref)
	}

	sec.Questions = reordered
	return nil
}

// Totals computes the paper aggregates from its sections: the sum of all
// reference marks and the sum of section time limits.
func Totals(sections []model.Section) (totalMarks float64, totalTime int) {
	for _, sec := range sections {
		totalTime += sec.TimeLimit
		for _, ref := range sec.Questions {
			totalMarks += ref.Marks
		}
	}
	return totalMarks, totalTime
}

// renumber rewrites question numbers to 1..N following the current
// display order.
func renumber(sec *model.Section) {
	for i := range sec.Questions {
		sec.Questions[i].QuestionNumber = i + 1
	}
}

func maxNumber(sec *model.Section) int {
	max := 0
	for _, ref := range sec.Questions {
		if ref.QuestionNumber > max {
			max = ref.QuestionNumber
		}
	}
	return max
}

func findNumber(sec *model.Section, number int) int {
	for i, ref := range sec.Questions {
		if ref.QuestionNumber == number {
			return i
		}
	}
	return -1
}
