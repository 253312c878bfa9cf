package editor

import "github.com/heimdex/heimdex-editor/internal/timeline"

// DefaultHistoryLimit bounds the undo stack when Options leaves it unset.
const DefaultHistoryLimit = 100

// history keeps whole-project snapshots. Project values are copy-on-write,
// so a snapshot shares every unchanged track with its neighbours.
type history struct {
	limit int
	undo  []timeline.Project
	redo  []timeline.Project
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit}
}

// push records the state a command is about to leave and invalidates redo.
func (h *history) push(p timeline.Project) {
	h.undo = append(h.undo, p)
	if len(h.undo) > h.limit {
		trimmed := make([]timeline.Project, h.limit)
		copy(trimmed, h.undo[len(h.undo)-h.limit:])
		h.undo = trimmed
	}
	h.redo = nil
}

func (h *history) stepBack(current timeline.Project) (timeline.Project, bool) {
	if len(h.undo) == 0 {
		return timeline.Project{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

func (h *history) stepForward(current timeline.Project) (timeline.Project, bool) {
	if len(h.redo) == 0 {
		return timeline.Project{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}

func (h *history) sizes() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
