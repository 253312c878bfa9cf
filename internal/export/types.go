package export

import "github.com/heimdex/heimdex-editor/internal/timeline"

// DefaultLanguage buckets every caption when no caption carries a
// language tag. Passed to CaptionsSRT/CaptionsVTT it selects all captions.
const DefaultLanguage = "default"

// VideoRef points at a rendered video the caller keeps outside the bundle.
type VideoRef struct {
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

type BundleOptions struct {
	Video *VideoRef
}

type CaptionFiles struct {
	Language string `json:"language"`
	SRT      string `json:"srt"`
	VTT      string `json:"vtt"`
}

// ProjectBundle is the portable export of a project. It is not archived;
// WriteBundle lays its parts out as separate files.
type ProjectBundle struct {
	Project      timeline.Project `json:"project"`
	Metadata     map[string]any   `json:"metadata"`
	ChaptersJSON string           `json:"chaptersJson"`
	Captions     []CaptionFiles   `json:"captions"`
	Video        *VideoRef        `json:"video,omitempty"`
}

type ExportRequest struct {
	Format    string    `json:"format"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	FrameRate float64   `json:"frame_rate"`
	OutputDir string    `json:"output_dir"`
	Video     *VideoRef `json:"video"`
}

type ExportResponse struct {
	Status     string   `json:"status"`
	Format     string   `json:"format"`
	OutputPath string   `json:"output_path,omitempty"`
	Files      []string `json:"files,omitempty"`
	Content    string   `json:"content,omitempty"`
}
