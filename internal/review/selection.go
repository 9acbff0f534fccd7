// Package review holds the reviewer's working state over a batch of
// generated insights: which are accepted, and where each accepted one goes.
package review

import "github.com/insightmap/insightmap/internal/model"

// Selection tracks accept/reject state and placement overrides for one
// batch. A new batch (a new processing run) resets everything to defaults:
// every insight selected, every placement set to its top suggestion.
//
// Selection is owned by a single wizard session and is not safe for
// concurrent use.
type Selection struct {
	batch     []model.GeneratedInsight
	selected  map[string]bool
	placement map[string]string // tempId -> chosen cellId ("" if no suggestion)
}

// NewSelection initializes review state for a batch. The default is to
// accept everything at its highest-confidence placement.
func NewSelection(batch []model.GeneratedInsight) *Selection {
	s := &Selection{}
	s.Reset(batch)
	return s
}

// Reset replaces the batch and restores defaults. Overrides from a previous
// batch never survive: their tempIds have no meaning in the new one.
func (s *Selection) Reset(batch []model.GeneratedInsight) {
	s.batch = append([]model.GeneratedInsight(nil), batch...)
	s.selected = make(map[string]bool, len(batch))
	s.placement = make(map[string]string, len(batch))
	for i := range s.batch {
		ins := &s.batch[i]
		s.selected[ins.TempID] = true
		if top := ins.TopPlacement(); top != nil {
			s.placement[ins.TempID] = top.CellID
		} else {
			s.placement[ins.TempID] = ""
		}
	}
}

// Toggle flips whether the insight is accepted. Unknown tempIds are ignored.
func (s *Selection) Toggle(tempID string) {
	if _, ok := s.selected[tempID]; !ok {
		return
	}
	s.selected[tempID] = !s.selected[tempID]
}

// SelectAll accepts every insight in the batch
func (s *Selection) SelectAll() {
	for id := range s.selected {
		s.selected[id] = true
	}
}

// DeselectAll rejects every insight in the batch
func (s *Selection) DeselectAll() {
	for id := range s.selected {
		s.selected[id] = false
	}
}

// Selected reports whether the insight is currently accepted
func (s *Selection) Selected(tempID string) bool {
	return s.selected[tempID]
}

// SelectedCount returns how many insights are currently accepted
func (s *Selection) SelectedCount() int {
	n := 0
	for _, on := range s.selected {
		if on {
			n++
		}
	}
	return n
}

// SetPlacement overrides where the insight will be attached. The cellId is
// not validated against the journey map here; the grid rendering the map is
// responsible for offering valid cells. Unknown tempIds are ignored.
func (s *Selection) SetPlacement(tempID, cellID string) {
	if _, ok := s.placement[tempID]; !ok {
		return
	}
	s.placement[tempID] = cellID
}

// Placement returns the current placement choice for the insight
func (s *Selection) Placement(tempID string) string {
	return s.placement[tempID]
}

// Accepted is one confirmed insight together with its final placement choice
type Accepted struct {
	Insight model.GeneratedInsight
	CellID  string
}

// Confirm returns the accepted subset of the batch in original order, each
// carrying its possibly-overridden placement. An empty selection is a valid
// state and yields an empty slice; disabling the confirm action in that case
// is the caller's concern, not this model's.
func (s *Selection) Confirm() []Accepted {
	out := make([]Accepted, 0, len(s.batch))
	for _, ins := range s.batch {
		if !s.selected[ins.TempID] {
			continue
		}
		out = append(out, Accepted{Insight: ins, CellID: s.placement[ins.TempID]})
	}
	return out
}
