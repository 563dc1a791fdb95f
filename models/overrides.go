package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// OverrideState is a manual grading mark applied to an answer in
// what-if mode.
type OverrideState string

const (
	OverrideCorrect   OverrideState = "correct"
	OverrideIncorrect OverrideState = "incorrect"
)

// NormalizeAnswer produces the key answers are matched by: surrounding
// whitespace trimmed, then Unicode case folding. "LeBron James " and
// "lebron james" collapse to the same key.
func NormalizeAnswer(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// AnswerOverridable reports whether an answer can carry an override
// mark. Blank answers and the em dash placeholder shown for skipped
// questions cannot.
func AnswerOverridable(s string) bool {
	n := strings.TrimSpace(s)
	return n != "" && n != "—"
}

// Overrides is the what-if input: hypothetical conference orderings
// and manual grading marks. The zero value means "no overrides" and
// simulation with it returns entries unchanged.
type Overrides struct {
	// StandingsOrder lists team ids per conference in hypothetical
	// standings order; a team's position is its 1-based index.
	// Teams absent from the list keep their real position.
	StandingsOrder map[Conference][]int `json:"standings_order,omitempty"`

	// AnswerOverrides maps question id to normalized answer text to
	// the mark applied to it.
	AnswerOverrides map[int]map[string]OverrideState `json:"answer_overrides,omitempty"`
}

// Empty reports whether no override is in effect.
func (o Overrides) Empty() bool {
	for _, ids := range o.StandingsOrder {
		if len(ids) > 0 {
			return false
		}
	}
	for _, marks := range o.AnswerOverrides {
		if len(marks) > 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent deep copy.
func (o Overrides) Clone() Overrides {
	var c Overrides
	if o.StandingsOrder != nil {
		c.StandingsOrder = make(map[Conference][]int, len(o.StandingsOrder))
		for conf, ids := range o.StandingsOrder {
			c.StandingsOrder[conf] = append([]int(nil), ids...)
		}
	}
	if o.AnswerOverrides != nil {
		c.AnswerOverrides = make(map[int]map[string]OverrideState, len(o.AnswerOverrides))
		for qid, marks := range o.AnswerOverrides {
			m := make(map[string]OverrideState, len(marks))
			for k, v := range marks {
				m[k] = v
			}
			c.AnswerOverrides[qid] = m
		}
	}
	return c
}

// SetStandingsOrder replaces one conference's hypothetical ordering
// with a copy of ids. An empty list clears the override.
func (o *Overrides) SetStandingsOrder(conf Conference, ids []int) {
	if len(ids) == 0 {
		delete(o.StandingsOrder, conf)
		return
	}
	if o.StandingsOrder == nil {
		o.StandingsOrder = make(map[Conference][]int, 2)
	}
	o.StandingsOrder[conf] = append([]int(nil), ids...)
}

// StandingsIndex returns team id to 1-based hypothetical position for
// one conference, or nil when the conference has no override.
func (o Overrides) StandingsIndex(conf Conference) map[int]int {
	ids := o.StandingsOrder[conf]
	if len(ids) == 0 {
		return nil
	}
	idx := make(map[int]int, len(ids))
	for i, id := range ids {
		idx[id] = i + 1
	}
	return idx
}

// AnswerState returns the mark on an answer, or "" when unmarked.
func (o Overrides) AnswerState(questionID int, answer string) OverrideState {
	return o.AnswerOverrides[questionID][NormalizeAnswer(answer)]
}

// AdvanceAnswer cycles an answer's mark: unmarked to correct to
// incorrect back to unmarked. Non-overridable answers are ignored.
func (o *Overrides) AdvanceAnswer(questionID int, answer string) {
	if !AnswerOverridable(answer) {
		return
	}
	key := NormalizeAnswer(answer)
	switch o.AnswerOverrides[questionID][key] {
	case OverrideCorrect:
		o.AnswerOverrides[questionID][key] = OverrideIncorrect
	case OverrideIncorrect:
		delete(o.AnswerOverrides[questionID], key)
		if len(o.AnswerOverrides[questionID]) == 0 {
			delete(o.AnswerOverrides, questionID)
		}
	default:
		if o.AnswerOverrides == nil {
			o.AnswerOverrides = make(map[int]map[string]OverrideState)
		}
		if o.AnswerOverrides[questionID] == nil {
			o.AnswerOverrides[questionID] = make(map[string]OverrideState)
		}
		o.AnswerOverrides[questionID][key] = OverrideCorrect
	}
}

// DragPoint locates one end of a drag within a named list.
type DragPoint struct {
	ListID string `json:"listId"`
	Index  int    `json:"index"`
}

// DragEvent mirrors the payload a drag-and-drop surface emits when a
// row is dropped. A nil destination means the drop landed nowhere.
type DragEvent struct {
	Source      DragPoint  `json:"source"`
	Destination *DragPoint `json:"destination"`
}

// ReorderOnDrag applies a same-list drag to an ordering and returns
// the result. Drops outside a list, cross-list drops and out-of-range
// indices leave the input untouched and return it as is.
func ReorderOnDrag(ids []int, ev DragEvent) []int {
	if ev.Destination == nil || ev.Destination.ListID != ev.Source.ListID {
		return ids
	}
	from, to := ev.Source.Index, ev.Destination.Index
	if from == to || from < 0 || to < 0 || from >= len(ids) || to >= len(ids) {
		return ids
	}
	out := append([]int(nil), ids...)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]int{moved}, out[to:]...)...)
	return out
}
