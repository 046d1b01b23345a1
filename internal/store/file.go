package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/draftdesk/docfill/internal/model"
)

const (
	refFileName     = "reference.json"
	actionsFileName = "actions.log"
	counterFileName = "counter"
)

// reservedFileNames are sibling files an artifact must not shadow.
var reservedFileNames = map[string]struct{}{
	refFileName:     {},
	actionsFileName: {},
	counterFileName: {},
}

// FileStore keeps each reference in its own directory under root:
// reference.json holds the aggregate, actions.log is append-only JSONL, and
// artifacts are sibling files. Ids are dense integers from a counter file.
type FileStore struct {
	root string
	mu   sync.Mutex
}

var _ ReferenceStore = (*FileStore)(nil)

// NewFile creates the root directory if needed.
func NewFile(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrapf(err, "file: create root %s", root)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) refDir(id int64) string {
	return filepath.Join(s.root, fmt.Sprintf("ref_%03d", id))
}

func (s *FileStore) Create(_ context.Context, ref *model.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID()
	if err != nil {
		return err
	}
	ref.ID = id

	dir := s.refDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "file: create reference dir %s", dir)
	}
	return s.writeAggregate(ref)
}

// nextID bumps the counter file and returns the new id. The counter is the
// only cross-reference state, so ids stay dense across restarts.
func (s *FileStore) nextID() (int64, error) {
	path := filepath.Join(s.root, counterFileName)

	var current int64
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		current, err = strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return 0, eris.Wrapf(err, "file: parse counter %s", path)
		}
	case os.IsNotExist(err):
	default:
		return 0, eris.Wrap(err, "file: read counter")
	}

	next := current + 1
	if err := atomicWrite(path, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *FileStore) writeAggregate(ref *model.Reference) error {
	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return eris.Wrap(err, "file: marshal reference")
	}
	return atomicWrite(filepath.Join(s.refDir(ref.ID), refFileName), data)
}

func (s *FileStore) readAggregate(id int64) (*model.Reference, error) {
	data, err := os.ReadFile(filepath.Join(s.refDir(id), refFileName))
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(model.ErrNotFound, "file: reference %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read reference %d", id)
	}
	var ref model.Reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, eris.Wrapf(err, "file: unmarshal reference %d", id)
	}
	return &ref, nil
}

func (s *FileStore) Get(_ context.Context, id int64) (*model.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAggregate(id)
}

func (s *FileStore) Save(_ context.Context, ref *model.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.refDir(ref.ID)); os.IsNotExist(err) {
		return eris.Wrapf(model.ErrNotFound, "file: reference %d", ref.ID)
	}
	return s.writeAggregate(ref)
}

func (s *FileStore) List(_ context.Context) ([]model.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, eris.Wrap(err, "file: list references")
	}

	var ids []int64
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "ref_") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(e.Name(), "ref_"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	refs := make([]model.Reference, 0, len(ids))
	for _, id := range ids {
		ref, err := s.readAggregate(id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, nil
}

func (s *FileStore) AppendAction(_ context.Context, refID int64, entry model.ActionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.refDir(refID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return eris.Wrapf(model.ErrNotFound, "file: reference %d", refID)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "file: marshal action")
	}

	f, err := os.OpenFile(filepath.Join(dir, actionsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "file: open actions log for reference %d", refID)
	}
	_, werr := f.Write(append(line, '\n'))
	cerr := f.Close()
	if werr != nil {
		return eris.Wrapf(werr, "file: append action for reference %d", refID)
	}
	return eris.Wrapf(cerr, "file: close actions log for reference %d", refID)
}

func (s *FileStore) ReadActions(_ context.Context, refID int64, limit int) ([]model.ActionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.refDir(refID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, eris.Wrapf(model.ErrNotFound, "file: reference %d", refID)
	}

	data, err := os.ReadFile(filepath.Join(dir, actionsFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read actions for reference %d", refID)
	}

	var actions []model.ActionEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e model.ActionEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, eris.Wrapf(err, "file: unmarshal action for reference %d", refID)
		}
		actions = append(actions, e)
	}
	if limit > 0 && len(actions) > limit {
		actions = actions[len(actions)-limit:]
	}
	return actions, nil
}

func (s *FileStore) WriteArtifact(_ context.Context, refID int64, name string, data []byte) error {
	if _, reserved := reservedFileNames[name]; reserved || !validArtifactName(name) {
		return eris.Wrapf(model.ErrInvalidRequest, "file: artifact name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.refDir(refID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return eris.Wrapf(model.ErrNotFound, "file: reference %d", refID)
	}
	return atomicWrite(filepath.Join(dir, name), data)
}

func (s *FileStore) ReadArtifact(_ context.Context, refID int64, name string) ([]byte, error) {
	if !validArtifactName(name) {
		return nil, eris.Wrapf(model.ErrInvalidRequest, "file: artifact name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.refDir(refID), name))
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(model.ErrNotFound, "file: artifact %s for reference %d", name, refID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read artifact %s for reference %d", name, refID)
	}
	return data, nil
}

// Migrate is a no-op; the directory layout needs no schema.
func (s *FileStore) Migrate(_ context.Context) error { return nil }

func (s *FileStore) Close() error { return nil }

// atomicWrite writes via a temp file in the same directory then renames, so
// readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "file: create temp in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "file: rename to %s", path)
	}
	return nil
}
