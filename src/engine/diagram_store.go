package engine

import (
	"sync"

	"diagramdb/src/models"

	"go.uber.org/zap"
)

// FileStore is the authoritative mapping from file id to diagram
// document.
type FileStore interface {
	SaveFile(file *models.File) error
	GetFile(fileID string) (*models.File, error)
	FileExists(fileID string) bool
	RemoveFile(fileID string) bool
	Snapshot() map[string]*models.File
	Len() int
}

// DiagramStore keeps every diagram in memory behind a single mutex.
// All operations copy on the way in and out, so callers never hold an
// alias into the map, and the lock is only ever held for the map access
// and the copy itself. Disk I/O never happens under this lock.
type DiagramStore struct {
	mu     sync.Mutex
	files  map[string]*models.File
	logger *zap.SugaredLogger
}

// NewDiagramStore creates an empty store.
func NewDiagramStore(logger *zap.SugaredLogger) *DiagramStore {
	return &DiagramStore{
		files:  make(map[string]*models.File),
		logger: logger,
	}
}

// NewDiagramStoreFrom creates a store pre-populated with the given
// files, taking ownership of the map (used by the startup load path).
func NewDiagramStoreFrom(files map[string]*models.File, logger *zap.SugaredLogger) *DiagramStore {
	if files == nil {
		files = make(map[string]*models.File)
	}

	return &DiagramStore{
		files:  files,
		logger: logger,
	}
}

// SaveFile inserts or fully replaces the document keyed by its FileID.
// There is no merge: the previous document, if any, is discarded
// wholesale. An empty FileID fails without mutating anything.
func (s *DiagramStore) SaveFile(file *models.File) error {
	if file == nil || file.FileID == "" {
		return ErrFileIDRequired
	}

	// Copy before taking the lock so the caller cannot mutate the
	// stored document afterwards.
	stored := file.Clone()

	s.mu.Lock()
	s.files[stored.FileID] = stored
	s.mu.Unlock()

	return nil
}

// GetFile returns a deep copy of the stored document, or
// ErrFileNotFound.
func (s *DiagramStore) GetFile(fileID string) (*models.File, error) {
	s.mu.Lock()
	file, ok := s.files[fileID]
	if ok {
		file = file.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrFileNotFound
	}

	return file, nil
}

// FileExists reports whether the id is present. Absence is not an
// error here, unlike GetFile.
func (s *DiagramStore) FileExists(fileID string) bool {
	s.mu.Lock()
	_, ok := s.files[fileID]
	s.mu.Unlock()

	return ok
}

// RemoveFile deletes the entry if present and reports whether a
// removal happened. Removing an absent id is a successful no-op.
func (s *DiagramStore) RemoveFile(fileID string) bool {
	s.mu.Lock()
	_, ok := s.files[fileID]
	if ok {
		delete(s.files, fileID)
	}
	s.mu.Unlock()

	return ok
}

// Snapshot returns a consistent point-in-time deep copy of the whole
// map. The lock is released before the caller serializes or writes
// anything, so slow checkpoint I/O cannot stall live traffic.
func (s *DiagramStore) Snapshot() map[string]*models.File {
	s.mu.Lock()
	out := make(map[string]*models.File, len(s.files))
	for id, file := range s.files {
		out[id] = file.Clone()
	}
	s.mu.Unlock()

	return out
}

// Len returns the number of stored documents.
func (s *DiagramStore) Len() int {
	s.mu.Lock()
	n := len(s.files)
	s.mu.Unlock()

	return n
}
