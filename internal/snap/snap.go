// Package snap computes alignment targets for drag gestures and classifies
// pointer positions against the track layout. Everything here is pure.
package snap

import (
	"math"
	"sort"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// SeparatorHeight is the fixed height of the gap rows between tracks.
const SeparatorHeight = 6.0

// Targets returns the candidate snap times: 0, duration, currentTime and the
// start and end of every element except excludeID. Duplicates are removed.
// The result is sorted ascending only for determinism.
func Targets(tracks []timeline.Track, currentTime, duration float64, excludeID string) []float64 {
	seen := map[float64]struct{}{}
	out := make([]float64, 0, 3)
	add := func(v float64) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(0)
	add(duration)
	add(currentTime)
	for _, t := range tracks {
		for _, el := range t.Elements {
			if excludeID != "" && el.ID == excludeID {
				continue
			}
			add(el.Start)
			add(el.End)
		}
	}

	sort.Float64s(out)
	return out
}

// Nearest returns the target closest to t within threshold.
func Nearest(targets []float64, t, threshold float64) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	for _, c := range targets {
		if d := math.Abs(c - t); d <= threshold && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetTrack
	TargetSeparator
)

func (k TargetKind) String() string {
	switch k {
	case TargetTrack:
		return "track"
	case TargetSeparator:
		return "separator"
	default:
		return "none"
	}
}

func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Target is the row a pointer is over. Index is the track index for
// TargetTrack and the separator index (the insertion point) for
// TargetSeparator.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Index int        `json:"index"`
}

// ClassifyPointer maps a vertical pointer position onto the layout of a
// leading separator followed by alternating track and separator rows.
func ClassifyPointer(clientY, containerTop, trackHeight float64) Target {
	none := Target{Kind: TargetNone, Index: -1}
	rel := clientY - containerTop
	if !finite(rel) || !finite(trackHeight) || rel < 0 || trackHeight <= 0 {
		return none
	}
	rowHeight := trackHeight + SeparatorHeight
	rows := math.Floor(rel / rowHeight)
	if !finite(rows) || rows > math.MaxInt32 {
		return none
	}
	row := int(rows)
	offset := rel - rows*rowHeight
	if offset < SeparatorHeight {
		return Target{Kind: TargetSeparator, Index: row}
	}
	return Target{Kind: TargetTrack, Index: row}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
