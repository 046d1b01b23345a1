package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/draftdesk/docfill/internal/model"
)

// ReferenceStore persists reference aggregates, their append-only action
// logs, and assembled artifacts. Aggregates are read and written whole;
// callers must serialize operations against the same reference.
type ReferenceStore interface {
	// Create persists a new aggregate and assigns its numeric id.
	Create(ctx context.Context, ref *model.Reference) error
	Get(ctx context.Context, id int64) (*model.Reference, error)
	// Save overwrites the stored aggregate.
	Save(ctx context.Context, ref *model.Reference) error
	// List returns all aggregates ordered by id.
	List(ctx context.Context) ([]model.Reference, error)

	AppendAction(ctx context.Context, refID int64, entry model.ActionEntry) error
	// ReadActions returns the last limit entries in chronological order.
	// limit <= 0 returns the whole log.
	ReadActions(ctx context.Context, refID int64, limit int) ([]model.ActionEntry, error)

	// WriteArtifact stores a named output for the reference, replacing any
	// previous artifact with the same name.
	WriteArtifact(ctx context.Context, refID int64, name string, data []byte) error
	ReadArtifact(ctx context.Context, refID int64, name string) ([]byte, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// validArtifactName rejects names that could escape a reference's directory
// on the file backend. All backends apply it so names stay portable.
func validArtifactName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}
