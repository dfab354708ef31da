package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/statenode/pkg/config"
)

// Library serves machine configurations stored as documents in a Loam repository:
// one Markdown (frontmatter), YAML or JSON file per machine.
type Library struct {
	Repo *loam.TypedRepository[Document]
}

// New creates a library over an existing typed repository.
func New(repo *loam.TypedRepository[Document]) *Library {
	return &Library{Repo: repo}
}

// Open initializes a read-only Loam repository at path.
func Open(path string) (*Library, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Read-only avoids Loam's sandbox behavior in dev mode; machines are never written.
	repo, err := loam.Init(absPath, loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Document](repo)), nil
}

// Get loads the machine stored under id ("light" finds light.md).
// A document without a name takes its ID as name.
func (l *Library) Get(ctx context.Context, id string) (*config.Config, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data := doc.Data
	if data.Name == "" {
		data.Name = trimExtension(doc.ID)
	}

	cfg, err := config.FromMap(data.toMap())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return cfg, nil
}

// List returns the sorted IDs of the stored machines.
func (l *Library) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, trimExtension(doc.ID))
	}
	slices.Sort(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
