// Package timecode formats timeline positions (seconds) for display and for
// the subtitle and edit-list export formats.
package timecode

import (
	"fmt"
	"math"
)

// FormatWithFrames renders seconds as MM:SS.FF where FF is the frame number
// within the second at fps. Minutes are not wrapped into hours.
func FormatWithFrames(seconds float64, fps int) string {
	if fps <= 0 {
		fps = 30
	}
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := math.Floor(seconds)
	frames := int(math.Floor((seconds - whole) * float64(fps)))
	if frames >= fps {
		frames = fps - 1
	}
	total := int(whole)
	return fmt.Sprintf("%02d:%02d.%02d", total/60, total%60, frames)
}

// FormatSimple renders seconds as MM:SS, truncating fractions.
func FormatSimple(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// SRT renders seconds as HH:MM:SS,mmm.
func SRT(seconds float64) string {
	return clock(seconds, ',')
}

// VTT renders seconds as HH:MM:SS.mmm.
func VTT(seconds float64) string {
	return clock(seconds, '.')
}

func clock(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	millis := ms % 1000
	totalSeconds := ms / 1000
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

// Frames renders seconds as an HH:MM:SS:FF edit-list timecode at fps.
func Frames(seconds float64, fps int) string {
	if fps <= 0 {
		fps = 30
	}
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
