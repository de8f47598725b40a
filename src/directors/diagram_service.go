package directors

import (
	"errors"

	"diagramdb/src/engine"
	"diagramdb/src/models"
	"diagramdb/src/settings"

	"go.uber.org/zap"
)

// Result messages returned to RPC callers.
const (
	MsgSaved        = "Class diagram saved successfully"
	MsgFileIDNeeded = "File ID is required"
	MsgExists       = "File exists"
	MsgNotExists    = "File does not exist"
	MsgDeleted      = "Class diagram deleted successfully"
	MsgNotFound     = "File not found"
	MsgExported     = "Class diagrams exported successfully"
)

// DiagramService manages operations on class diagrams. It owns the
// translation from store results to the plain Result values the RPC
// surface returns; transport errors never originate here.
type DiagramService struct {
	store     engine.FileStore
	snapshots engine.SnapshotStore
	settings  *settings.Arguments
	logger    *zap.SugaredLogger
}

// NewDiagramService creates a new DiagramService
func NewDiagramService(store engine.FileStore, snapshots engine.SnapshotStore,
	settings *settings.Arguments,
	logger *zap.SugaredLogger) *DiagramService {
	return &DiagramService{
		store:     store,
		snapshots: snapshots,
		settings:  settings,
		logger:    logger,
	}
}

// SaveClassDiagram inserts or replaces the document keyed by its file
// id. A missing id is a request-level failure carried in the Result,
// not an error.
func (s *DiagramService) SaveClassDiagram(file *models.File) (models.Result, error) {
	if err := s.store.SaveFile(file); err != nil {
		if errors.Is(err, engine.ErrFileIDRequired) {
			return models.Result{Value: false, Message: MsgFileIDNeeded}, nil
		}

		return models.Result{}, err
	}

	s.logger.Debugw("Saved class diagram", "fileID", file.FileID, "stored", s.store.Len())

	return models.Result{Value: true, Message: MsgSaved}, nil
}

// GetClassDiagram returns a copy of the stored document or
// engine.ErrFileNotFound.
func (s *DiagramService) GetClassDiagram(fileID string) (*models.File, error) {
	return s.store.GetFile(fileID)
}

// IsExistingClassDiagram reports presence. It never fails.
func (s *DiagramService) IsExistingClassDiagram(fileID string) models.Result {
	if s.store.FileExists(fileID) {
		return models.Result{Value: true, Message: MsgExists}
	}

	return models.Result{Value: false, Message: MsgNotExists}
}

// DeleteClassDiagram removes the document if present. A missing id is
// a false Result, never an error, so deleting twice is harmless.
func (s *DiagramService) DeleteClassDiagram(fileID string) models.Result {
	if s.store.RemoveFile(fileID) {
		return models.Result{Value: true, Message: MsgDeleted}
	}

	return models.Result{Value: false, Message: MsgNotFound}
}

// Snapshot returns a point-in-time copy of every stored document.
func (s *DiagramService) Snapshot() map[string]*models.File {
	return s.store.Snapshot()
}

// ExportClassDiagrams writes every stored document as its own payload
// file under a timestamped export directory.
func (s *DiagramService) ExportClassDiagrams() (models.Result, error) {
	files := s.store.Snapshot()

	exportDir, err := s.snapshots.ExportFiles(files)
	if err != nil {
		return models.Result{}, err
	}

	return models.Result{Value: true, Message: MsgExported + ": " + exportDir}, nil
}
