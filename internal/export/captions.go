package export

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/heimdex/heimdex-editor/internal/timecode"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

var vttEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type cue struct {
	start, end float64
	text       string
}

// NormalizeLanguage canonicalizes a BCP 47 tag ("EN-us" -> "en-US").
// Unparseable tags are returned trimmed but otherwise unchanged.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

// CaptionLanguages lists the distinct caption language tags in order of
// first appearance, walking tracks in order and elements by start.
func CaptionLanguages(p timeline.Project) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, t := range p.Tracks {
		for _, el := range t.Elements {
			if el.Kind != timeline.KindCaption {
				continue
			}
			lang := NormalizeLanguage(el.Cue.Lang)
			if lang == "" || seen[lang] {
				continue
			}
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}

func collectCues(p timeline.Project, lang string) []cue {
	want := NormalizeLanguage(lang)
	all := lang == DefaultLanguage || want == ""

	var cues []cue
	for _, t := range p.Tracks {
		for _, el := range t.Elements {
			text, ok := el.CaptionText()
			if !ok {
				continue
			}
			if !all && NormalizeLanguage(el.Cue.Lang) != want {
				continue
			}
			cues = append(cues, cue{start: el.Start, end: el.End, text: text})
		}
	}
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].start < cues[j].start
	})
	return cues
}

// cueLines drops blank lines, which would end the cue early in both
// formats, and normalizes line endings.
func cueLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func srtText(text string) string {
	lines := cueLines(text)
	for i, line := range lines {
		lines[i] = strings.ReplaceAll(line, "-->", "->")
	}
	return strings.Join(lines, "\n")
}

func vttText(text string) string {
	lines := cueLines(text)
	for i, line := range lines {
		lines[i] = vttEscaper.Replace(line)
	}
	return strings.Join(lines, "\n")
}

// CaptionsSRT renders the captions of lang as SubRip. DefaultLanguage (or
// an empty lang) selects every caption.
func CaptionsSRT(p timeline.Project, lang string) string {
	var b strings.Builder
	for i, c := range collectCues(p, lang) {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(timecode.SRT(c.start))
		b.WriteString(" --> ")
		b.WriteString(timecode.SRT(c.end))
		b.WriteByte('\n')
		b.WriteString(srtText(c.text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// CaptionsVTT renders the captions of lang as WebVTT.
func CaptionsVTT(p timeline.Project, lang string) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range collectCues(p, lang) {
		b.WriteString(timecode.VTT(c.start))
		b.WriteString(" --> ")
		b.WriteString(timecode.VTT(c.end))
		b.WriteByte('\n')
		b.WriteString(vttText(c.text))
		b.WriteString("\n\n")
	}
	return b.String()
}
