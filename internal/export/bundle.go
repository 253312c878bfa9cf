package export

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// ChaptersJSON encodes the project's chapters as a JSON array ordered by
// start. A project without chapters yields "[]".
func ChaptersJSON(p timeline.Project) (string, error) {
	chapters, err := p.Chapters()
	if err != nil {
		return "", err
	}
	if chapters == nil {
		chapters = []timeline.Chapter{}
	}
	data, err := json.Marshal(chapters)
	if err != nil {
		return "", fmt.Errorf("failed to encode chapters: %w", err)
	}
	return string(data), nil
}

// Bundle composes the portable export of p. Captions get one entry per
// tagged language, or a single DefaultLanguage entry holding every caption
// when none is tagged.
func Bundle(p timeline.Project, opts BundleOptions) (*ProjectBundle, error) {
	chapters, err := ChaptersJSON(p)
	if err != nil {
		return nil, err
	}

	langs := CaptionLanguages(p)
	if len(langs) == 0 {
		langs = []string{DefaultLanguage}
	}
	captions := make([]CaptionFiles, 0, len(langs))
	for _, lang := range langs {
		captions = append(captions, CaptionFiles{
			Language: lang,
			SRT:      CaptionsSRT(p, lang),
			VTT:      CaptionsVTT(p, lang),
		})
	}

	metadata := maps.Clone(p.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}

	var video *VideoRef
	if opts.Video != nil && (opts.Video.URL != "" || opts.Video.FileName != "") {
		v := *opts.Video
		video = &v
	}

	return &ProjectBundle{
		Project:      p,
		Metadata:     metadata,
		ChaptersJSON: chapters,
		Captions:     captions,
		Video:        video,
	}, nil
}
