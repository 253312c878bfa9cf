package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileBase(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"plain", []string{"Final Cut (v2)"}, "Final Cut (v2)"},
		{"separators", []string{`My/Project\2024:cut`}, "My_Project_2024_cut"},
		{"control chars", []string{" A\nB\rC\tD\x00 "}, "ABCD"},
		{"hangul", []string{"인터뷰 편집"}, "인터뷰 편집"},
		{"leading dots", []string{"../secret"}, "_secret"},
		{"hidden", []string{".config"}, "config"},
		{"trailing dot", []string{"draft. "}, "draft"},
		{"falls through", []string{"  ", "\x00", "Project Name"}, "Project Name"},
		{"fallback", []string{"", "..."}, "project"},
		{"none", nil, "project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileBase(tt.candidates...); got != tt.want {
				t.Errorf("FileBase(%q) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestFileBase_Truncates(t *testing.T) {
	got := FileBase(strings.Repeat("가", 200))
	if n := len([]rune(got)); n != maxBaseLen {
		t.Errorf("FileBase() length = %d runes, want %d", n, maxBaseLen)
	}
}

func TestLanguagePart(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"EN", "en"},
		{"en-us", "en-US"},
		{"zh-hant-tw", "zh-Hant-TW"},
		{" ko ", "ko"},
		{"", ""},
		{"../etc", "etc"},
		{"x/y.z", "xyz"},
		{"日本語", ""},
	}
	for _, tt := range tests {
		if got := LanguagePart(tt.tag); got != tt.want {
			t.Errorf("LanguagePart(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestCaptionFileName(t *testing.T) {
	tests := []struct {
		base, lang, ext string
		want            string
	}{
		{"subs", "EN", "srt", "subs.en.srt"},
		{"subs", "pt-br", "vtt", "subs.pt-BR.vtt"},
		{"subs", "", "srt", "subs.srt"},
		{"subs", "../..", "vtt", "subs.vtt"},
	}
	for _, tt := range tests {
		if got := CaptionFileName(tt.base, tt.lang, tt.ext); got != tt.want {
			t.Errorf("CaptionFileName(%q, %q, %q) = %q, want %q", tt.base, tt.lang, tt.ext, got, tt.want)
		}
	}
}

func TestFileName_SkipsEmptyParts(t *testing.T) {
	if got := FileName("cut", "", "project", "json"); got != "cut.project.json" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateOutputDir(dir); err != nil {
		t.Fatalf("ValidateOutputDir(%q) error = %v", dir, err)
	}

	bad := map[string]string{
		"empty":        " ",
		"missing":      filepath.Join(dir, "missing"),
		"traversal":    dir + "/../" + filepath.Base(dir),
		"unclean":      dir + "/./",
		"regular file": file,
	}
	for name, path := range bad {
		t.Run(name, func(t *testing.T) {
			err := ValidateOutputDir(path)
			if err == nil {
				t.Fatalf("ValidateOutputDir(%q) = nil, want error", path)
			}
			if !strings.Contains(err.Error(), "export directory") {
				t.Errorf("error %q does not name the export directory", err)
			}
		})
	}
}
