// Package registry tracks uploaded datasets for the lifetime of the
// daemon: the staged file on disk, its profile and the latest analysis
// report.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/dataset"
	"github.com/sweeplabs/sweepd/internal/pipeline"
)

var (
	// ErrNotFound is returned when no dataset has the given id.
	ErrNotFound = errors.New("dataset not found")

	// ErrNoReport is returned when a dataset has not been analyzed yet.
	ErrNoReport = errors.New("dataset has no report")
)

// Entry is a registered dataset.
type Entry struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Path       string           `json:"-"`
	Size       int64            `json:"size"`
	UploadedAt time.Time        `json:"uploaded_at"`
	Profile    *dataset.Profile `json:"profile,omitempty"`
	Report     *pipeline.Report `json:"report,omitempty"`
}

// Registry is an in-memory dataset registry. Uploaded bytes are staged
// to files under a spool directory; entries live until deleted or the
// process exits.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	spoolDir string
	logger   *zap.Logger
}

// New creates a registry spooling uploads under dir. An empty dir uses
// the system temp directory.
func New(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "sweepd-datasets-")
		if err != nil {
			return nil, fmt.Errorf("creating spool dir: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}

	return &Registry{
		entries:  make(map[string]*Entry),
		spoolDir: dir,
		logger:   logger,
	}, nil
}

// Put stages the uploaded bytes to disk and registers the dataset.
// The staged file keeps the upload's extension so the reader can
// dispatch on it.
func (r *Registry) Put(name string, data []byte) (*Entry, error) {
	id := uuid.NewString()
	path := filepath.Join(r.spoolDir, id+filepath.Ext(name))

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}

	entry := &Entry{
		ID:         id,
		Name:       filepath.Base(name),
		Path:       path,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}

	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()

	r.logger.Info("dataset registered",
		zap.String("id", id),
		zap.String("name", entry.Name),
		zap.Int64("size", entry.Size),
	)
	return entry, nil
}

// Get returns the entry with the given id.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, nil
}

// List returns all entries, newest first.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UploadedAt.After(entries[j].UploadedAt)
	})
	return entries
}

// SetProfile attaches a profile to the dataset.
func (r *Registry) SetProfile(id string, profile *dataset.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry.Profile = profile
	return nil
}

// SetReport attaches the latest analysis report to the dataset.
func (r *Registry) SetReport(id string, report *pipeline.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry.Report = report
	return nil
}

// Report returns the latest report for the dataset.
func (r *Registry) Report(id string) (*pipeline.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if entry.Report == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoReport, id)
	}
	return entry.Report, nil
}

// Delete removes the entry and its staged file.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing staged file: %w", err)
	}
	return nil
}

// Close removes all staged files.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, entry := range r.entries {
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(r.entries, id)
	}
	return firstErr
}
