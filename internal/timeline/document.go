package timeline

import (
	"encoding/json"
	"fmt"
)

// document is the persisted and exchanged form of a Project.
type document struct {
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Version  int            `json:"version"`
	Duration float64        `json:"duration"`
	Tracks   []Track        `json:"tracks"`
}

func (p Project) MarshalJSON() ([]byte, error) {
	doc := document{
		ID:       p.ID,
		Metadata: p.Metadata,
		Version:  p.Version,
		Duration: p.Duration(),
		Tracks:   p.Tracks,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	if doc.Tracks == nil {
		doc.Tracks = []Track{}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a project document. The stored duration is ignored;
// it is always derived from the elements.
func (p *Project) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := Project{ID: doc.ID, Version: doc.Version, Tracks: doc.Tracks, Metadata: doc.Metadata}
	if len(out.Metadata) == 0 {
		out.Metadata = nil
	}
	if len(out.Tracks) == 0 {
		out.Tracks = nil
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}

func MarshalDocument(p Project) ([]byte, error) {
	return json.Marshal(p)
}

// ParseDocument decodes and validates a stored project document.
func ParseDocument(data []byte) (Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("parse project document: %w", err)
	}
	return p, nil
}
