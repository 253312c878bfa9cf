package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type bundleFile struct {
	name string
	data []byte
}

// WriteBundle writes each part of b as its own file under dir, prefixed
// with FileBase(name), and returns the written paths.
func WriteBundle(dir, name string, b *ProjectBundle) ([]string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return nil, err
	}
	base := FileBase(name)

	project, err := json.MarshalIndent(b.Project, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	metadata, err := json.MarshalIndent(b.Metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	files := []bundleFile{
		{FileName(base, "project", "json"), project},
		{FileName(base, "metadata", "json"), metadata},
		{FileName(base, "chapters", "json"), []byte(b.ChaptersJSON)},
	}
	for _, c := range b.Captions {
		files = append(files,
			bundleFile{CaptionFileName(base, c.Language, "srt"), []byte(c.SRT)},
			bundleFile{CaptionFileName(base, c.Language, "vtt"), []byte(c.VTT)},
		)
	}
	if b.Video != nil {
		video, err := json.MarshalIndent(b.Video, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode video reference: %w", err)
		}
		files = append(files, bundleFile{FileName(base, "video", "json"), video})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
