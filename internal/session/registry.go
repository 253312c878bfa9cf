package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/store"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

var ErrNameRequired = errors.New("project name is required")

// Registry opens projects from the store into sessions and writes them
// back. Each project has at most one live session.
type Registry struct {
	mu       sync.Mutex
	repo     store.Repository
	sessions map[string]*Session
	opts     Options
	logger   *slog.Logger
}

func NewRegistry(repo store.Repository, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		repo:     repo,
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger,
	}
}

// Create stores a new empty project and opens it.
func (r *Registry) Create(ctx context.Context, name string) (*Session, error) {
	return r.Import(ctx, name, timeline.NewProject(""))
}

// Import stores p under name and opens it. An existing project with the
// same id is rejected.
func (r *Registry) Import(ctx context.Context, name string, p timeline.Project) (*Session, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if p.ID == "" {
		p.ID = timeline.NewProject("").ID
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.repo.GetProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up project: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, timeline.ErrDuplicateID)
	}

	doc, err := timeline.MarshalDocument(p)
	if err != nil {
		return nil, err
	}
	rec := &store.ProjectRecord{ID: p.ID, Name: name, Version: p.Version, Document: doc}
	if err := r.repo.CreateProject(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := New(name, p, r.opts)
	if err != nil {
		return nil, err
	}
	r.sessions[p.ID] = s
	r.logger.Info("project created", "project_id", p.ID, "name", name)
	return s, nil
}

// Open returns the live session for id, loading it from the store on
// first use.
func (r *Registry) Open(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	rec, err := r.repo.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("project %s: %w", id, timeline.ErrNotFound)
	}
	p, err := timeline.ParseDocument(rec.Document)
	if err != nil {
		return nil, fmt.Errorf("stored project %s: %w", id, err)
	}
	p.ID = rec.ID

	s, err := New(rec.Name, p, r.opts)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = s
	r.logger.Info("project opened", "project_id", id, "version", p.Version)
	return s, nil
}

// Get returns a session that is already open.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// OpenSessions lists live sessions in no particular order.
func (r *Registry) OpenSessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) List(ctx context.Context) ([]*store.ProjectRecord, error) {
	return r.repo.ListProjects(ctx)
}

// Save writes the session's current project and a snapshot row.
func (r *Registry) Save(ctx context.Context, s *Session) error {
	p, revision := s.Snapshot()
	doc, err := timeline.MarshalDocument(p)
	if err != nil {
		return err
	}
	rec := &store.ProjectRecord{ID: p.ID, Name: s.Name(), Version: p.Version, Document: doc}
	if err := r.repo.SaveProject(ctx, rec); err != nil {
		return fmt.Errorf("failed to save project %s: %w", p.ID, err)
	}
	s.MarkSaved(revision, p.Version)
	r.logger.Debug("project saved", "project_id", p.ID, "version", p.Version, "revision", revision)
	return nil
}

// SaveDirty saves every open session with unsaved changes and returns how
// many were written.
func (r *Registry) SaveDirty(ctx context.Context) (int, error) {
	var saved int
	var errs []error
	for _, s := range r.OpenSessions() {
		if !s.Dirty() {
			continue
		}
		if err := r.Save(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// Close saves a dirty session and drops it.
func (r *Registry) Close(ctx context.Context, id string) error {
	s, ok := r.Get(id)
	if !ok {
		return nil
	}
	if s.Dirty() {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	r.logger.Info("project closed", "project_id", id)
	return nil
}

// Delete drops any live session and removes the project with its
// snapshots.
func (r *Registry) Delete(ctx context.Context, id string) error {
	rec, err := r.repo.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("project %s: %w", id, timeline.ErrNotFound)
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	if err := r.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	r.logger.Info("project deleted", "project_id", id)
	return nil
}

// Restore replaces the live project with a stored snapshot as a new
// version. The replacement can itself be undone.
func (r *Registry) Restore(ctx context.Context, id string, snapshotID int64) error {
	snap, err := r.repo.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil || snap.ProjectID != id {
		return fmt.Errorf("snapshot %d: %w", snapshotID, timeline.ErrNotFound)
	}
	restored, err := timeline.ParseDocument(snap.Document)
	if err != nil {
		return fmt.Errorf("stored snapshot %d: %w", snapshotID, err)
	}

	s, err := r.Open(ctx, id)
	if err != nil {
		return err
	}
	return s.Edit(func(ed *editor.Editor) error {
		return ed.Replace(restored)
	})
}

// Snapshots lists the saved versions of a project, newest first.
func (r *Registry) Snapshots(ctx context.Context, id string, limit int) ([]*store.Snapshot, error) {
	rec, err := r.repo.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("project %s: %w", id, timeline.ErrNotFound)
	}
	snaps, err := r.repo.ListSnapshots(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}
