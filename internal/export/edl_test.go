package export

import (
	"strings"
	"testing"
)

func TestGenerateEDL_SingleClip(t *testing.T) {
	p := buildProject(t, mustVideo(t, "v1", 0, 2, "/media/intro.mp4"))

	edl := GenerateEDL(p, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
}

func TestGenerateEDL_TimelinePositions(t *testing.T) {
	p := buildProject(t,
		mustVideo(t, "b", 3, 4.5, "/b.mp4"),
		mustVideo(t, "a", 0, 1, "/a.mp4"),
		mustCaption(t, "c", 0, 1, "ignored", ""),
	)

	edl := GenerateEDL(p, "Multi", 30.0)

	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:00 00:00:01:15 00:00:03:00 00:00:04:15") {
		t.Fatalf("second event line mismatch: %q", edl)
	}
	if strings.Contains(edl, "003") || strings.Contains(edl, "ignored") {
		t.Fatalf("non-video element exported: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	p := buildProject(t, mustVideo(t, "v", 0, 1, "/x.mp4"))
	edl := GenerateEDL(p, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestEDLEvents_PlaybackRateScalesSource(t *testing.T) {
	v := mustVideo(t, "v", 10, 12, "/fast.mp4")
	v.Media.PlaybackRate = 2
	p := buildProject(t, v)

	events := EDLEvents(p)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d", len(events))
	}
	ev := events[0]
	if ev.SourceOut != 4 || ev.RecordIn != 10 || ev.RecordOut != 12 {
		t.Errorf("event = %+v", ev)
	}
	if ev.ClipName != "fast" {
		t.Errorf("ClipName = %q, want fast", ev.ClipName)
	}
}
