package export

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/heimdex/heimdex-editor/internal/timecode"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// EDLEvent is one video element placed on the record timeline.
type EDLEvent struct {
	ClipName  string
	MediaPath string
	// SourceIn/SourceOut are offsets into the media, RecordIn/RecordOut
	// positions on the timeline, all in seconds.
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
	RecordOut float64
}

// EDLEvents collects the project's video elements in timeline order.
// Elements have no trim offset, so every event plays its source from 0.
func EDLEvents(p timeline.Project) []EDLEvent {
	var events []EDLEvent
	for _, t := range p.Tracks {
		for _, el := range t.Elements {
			if el.Kind != timeline.KindVideo {
				continue
			}
			rate := el.Media.PlaybackRate
			if rate <= 0 {
				rate = 1
			}
			events = append(events, EDLEvent{
				ClipName:  clipName(el),
				MediaPath: el.Media.Src,
				SourceIn:  0,
				SourceOut: el.Duration() * rate,
				RecordIn:  el.Start,
				RecordOut: el.End,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].RecordIn < events[j].RecordIn
	})
	return events
}

func clipName(el timeline.Element) string {
	if el.Media.Src == "" {
		return el.ID
	}
	return strings.TrimSuffix(filepath.Base(el.Media.Src), filepath.Ext(el.Media.Src))
}

// GenerateEDL renders the project's video elements as a CMX3600 edit list.
func GenerateEDL(p timeline.Project, title string, frameRate float64) string {
	return renderEDL(EDLEvents(p), title, frameRate)
}

func renderEDL(events []EDLEvent, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				timecode.Frames(ev.SourceIn, fps), timecode.Frames(ev.SourceOut, fps),
				timecode.Frames(ev.RecordIn, fps), timecode.Frames(ev.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
