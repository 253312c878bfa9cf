package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	maxBaseLen     = 80
	maxLanguageLen = 35
	fallbackBase   = "project"
)

// FileBase returns the first candidate that survives cleaning as an export
// file base, or "project". Control characters are dropped, anything that
// could act as a path separator becomes '_', and leading dots are stripped
// so a base never names a hidden file or a parent directory.
func FileBase(candidates ...string) string {
	for _, c := range candidates {
		if base := cleanBase(c); base != "" {
			return base
		}
	}
	return fallbackBase
}

func cleanBase(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
		case baseRune(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(strings.TrimSpace(b.String()), ". ")
	if runes := []rune(out); len(runes) > maxBaseLen {
		out = string(runes[:maxBaseLen])
	}
	// Windows refuses names ending in a dot or space.
	return strings.TrimRight(out, ". ")
}

func baseRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	}
	return false
}

// LanguagePart renders a caption language tag as a file name part: the
// canonical BCP 47 form limited to ASCII letters, digits and '-'.
func LanguagePart(tag string) string {
	var b strings.Builder
	for _, r := range NormalizeLanguage(tag) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxLanguageLen {
		out = strings.TrimRight(out[:maxLanguageLen], "-")
	}
	return out
}

// FileName joins base and the non-empty parts with dots.
func FileName(base string, parts ...string) string {
	name := base
	for _, p := range parts {
		if p != "" {
			name += "." + p
		}
	}
	return name
}

// CaptionFileName names a caption file: base.lang.ext, or base.ext when
// lang yields no usable part.
func CaptionFileName(base, lang, ext string) string {
	return FileName(base, LanguagePart(lang), ext)
}

// ValidateOutputDir checks that dir is a clean path to an existing
// directory with no ".." elements.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("export directory is required")
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("export directory %q must not contain ..", dir)
		}
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("export directory %q is not a clean path", dir)
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("export directory %q does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("export directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("export directory %q is not a directory", dir)
	}
	return nil
}
