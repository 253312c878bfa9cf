package store

import "time"

const ConfigAuthToken = "auth_token"

// ProjectRecord is a stored project. Document holds the project JSON.
type ProjectRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is a saved copy of a project document at one version.
type Snapshot struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Version   int       `json:"version"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
