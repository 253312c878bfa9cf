package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *ProjectRecord) error
	GetProject(ctx context.Context, id string) (*ProjectRecord, error)
	ListProjects(ctx context.Context) ([]*ProjectRecord, error)
	SaveProject(ctx context.Context, p *ProjectRecord) error
	DeleteProject(ctx context.Context, id string) error

	ListSnapshots(ctx context.Context, projectID string, limit int) ([]*Snapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*Snapshot, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *ProjectRecord) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, version, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Version, string(p.Document), p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*ProjectRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, version, document, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	var p ProjectRecord
	var document, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Version, &document, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Document = []byte(document)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// ListProjects returns project rows without their documents, most
// recently updated first.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*ProjectRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, version, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*ProjectRecord
	for rows.Next() {
		var p ProjectRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// SaveProject upserts the project row and appends a snapshot of the
// document in the same transaction.
func (r *SQLiteRepository) SaveProject(ctx context.Context, p *ProjectRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, version, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Version, string(p.Document), p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_snapshots (project_id, version, document, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Version, string(p.Document), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return tx.Commit()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

// ListSnapshots returns the newest snapshots of a project first. A limit
// of zero or less returns all of them.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, projectID string, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, version, created_at
		FROM project_snapshots WHERE project_id = ?
		ORDER BY id DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var s Snapshot
		var createdAt string
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Version, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, version, document, created_at
		FROM project_snapshots WHERE id = ?
	`, id)

	var s Snapshot
	var document, createdAt string
	err := row.Scan(&s.ID, &s.ProjectID, &s.Version, &document, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Document = []byte(document)
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
