package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func TestChaptersJSON(t *testing.T) {
	p := buildProject(t)
	got, err := ChaptersJSON(p)
	if err != nil {
		t.Fatalf("ChaptersJSON() error = %v", err)
	}
	if got != "[]" {
		t.Errorf("ChaptersJSON(no chapters) = %s, want []", got)
	}

	p, err = p.WithChapters([]timeline.Chapter{
		{Title: "Outro", Start: 30, End: 40},
		{Title: "Intro", Start: 0, End: 30},
	})
	if err != nil {
		t.Fatalf("WithChapters() error = %v", err)
	}
	got, err = ChaptersJSON(p)
	if err != nil {
		t.Fatalf("ChaptersJSON() error = %v", err)
	}
	want := `[{"title":"Intro","start":0,"end":30},{"title":"Outro","start":30,"end":40}]`
	if got != want {
		t.Errorf("ChaptersJSON() = %s, want %s", got, want)
	}
}

func TestBundle_UntaggedCaptionsUseDefaultBucket(t *testing.T) {
	p := buildProject(t,
		mustCaption(t, "c1", 0, 1, "one", ""),
		mustCaption(t, "c2", 1, 2, "two", ""),
	)

	b, err := Bundle(p, BundleOptions{})
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}
	if len(b.Captions) != 1 {
		t.Fatalf("len(Captions) = %d, want 1", len(b.Captions))
	}
	c := b.Captions[0]
	if c.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", c.Language, DefaultLanguage)
	}
	if !strings.Contains(c.SRT, "one") || !strings.Contains(c.SRT, "two") {
		t.Errorf("default SRT misses captions: %q", c.SRT)
	}
	if !strings.HasPrefix(c.VTT, "WEBVTT\n\n") || !strings.Contains(c.VTT, "two") {
		t.Errorf("default VTT malformed: %q", c.VTT)
	}
	if b.Video != nil {
		t.Errorf("Video = %+v, want nil", b.Video)
	}
}

func TestBundle_PerLanguageAndVideo(t *testing.T) {
	p := buildProject(t,
		mustCaption(t, "en1", 0, 1, "hello", "en"),
		mustCaption(t, "ja1", 1, 2, "konnichiwa", "ja"),
	)
	p = p.WithMetadata("title", "Demo")

	b, err := Bundle(p, BundleOptions{Video: &VideoRef{FileName: "demo.mp4"}})
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}
	if len(b.Captions) != 2 || b.Captions[0].Language != "en" || b.Captions[1].Language != "ja" {
		t.Fatalf("Captions = %+v", b.Captions)
	}
	if strings.Contains(b.Captions[0].SRT, "konnichiwa") {
		t.Error("en bucket contains ja caption")
	}
	if b.Metadata["title"] != "Demo" {
		t.Errorf("Metadata = %v", b.Metadata)
	}
	if b.Video == nil || b.Video.FileName != "demo.mp4" {
		t.Errorf("Video = %+v", b.Video)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	for _, key := range []string{"project", "metadata", "chaptersJson", "captions", "video"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("bundle JSON missing %q: %s", key, data)
		}
	}
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	p := buildProject(t, mustCaption(t, "c1", 0, 1, "hi", "en"))
	b, err := Bundle(p, BundleOptions{Video: &VideoRef{URL: "https://example.com/v.mp4"}})
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}

	files, err := WriteBundle(dir, "My/Project", b)
	if err != nil {
		t.Fatalf("WriteBundle() error = %v", err)
	}

	want := []string{
		"My_Project.project.json",
		"My_Project.metadata.json",
		"My_Project.chapters.json",
		"My_Project.en.srt",
		"My_Project.en.vtt",
		"My_Project.video.json",
	}
	if len(files) != len(want) {
		t.Fatalf("WriteBundle() wrote %v", files)
	}
	for i, name := range want {
		if files[i] != filepath.Join(dir, name) {
			t.Errorf("files[%d] = %s, want %s", i, files[i], name)
		}
		if _, err := os.Stat(files[i]); err != nil {
			t.Errorf("stat %s: %v", files[i], err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "My_Project.project.json"))
	if err != nil {
		t.Fatal(err)
	}
	back, err := timeline.ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument(written project) error = %v", err)
	}
	if back.ElementCount() != 1 {
		t.Errorf("ElementCount() = %d, want 1", back.ElementCount())
	}
}

func TestWriteBundle_InvalidDir(t *testing.T) {
	b, err := Bundle(buildProject(t), BundleOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WriteBundle(filepath.Join(t.TempDir(), "missing"), "x", b); err == nil {
		t.Error("WriteBundle() into missing dir succeeded")
	}
}

func TestWriteBundle_HostileNamesStayInDir(t *testing.T) {
	dir := t.TempDir()
	p := buildProject(t,
		mustCaption(t, "c1", 0, 1, "hi", "../../x"),
		mustCaption(t, "c2", 1, 2, "안녕", "KO"),
	)
	b, err := Bundle(p, BundleOptions{})
	if err != nil {
		t.Fatal(err)
	}

	files, err := WriteBundle(dir, "../../evil", b)
	if err != nil {
		t.Fatalf("WriteBundle() error = %v", err)
	}
	got := make(map[string]bool)
	for _, f := range files {
		if filepath.Dir(f) != dir {
			t.Errorf("%s escaped %s", f, dir)
		}
		got[filepath.Base(f)] = true
	}
	for _, name := range []string{"_.._evil.project.json", "_.._evil.x.srt", "_.._evil.ko.vtt"} {
		if !got[name] {
			t.Errorf("missing %s in %v", name, files)
		}
	}
}
