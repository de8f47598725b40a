package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"diagramdb/src/helpers"
	"diagramdb/src/models"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// SnapshotFileName is the single blob the whole store persists to.
const SnapshotFileName = "snapshot.bin"

// exportDirName holds the timestamped per-document export trees.
const exportDirName = "exported"

// SnapshotStore persists and restores the full store contents.
type SnapshotStore interface {
	WriteSnapshotFile(files map[string]*models.File) error
	LoadSnapshotFile() (map[string]*models.File, error)
	ExportFiles(files map[string]*models.File) (string, error)
}

// SnapshotStorageEngine reads and writes snapshot blobs under a data
// directory.
type SnapshotStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger
}

// NewSnapshotStore creates a storage engine rooted at dataDir,
// creating the directory if needed.
func NewSnapshotStore(dataDir string, logger *zap.SugaredLogger) (*SnapshotStorageEngine, error) {
	store := &SnapshotStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(store.DataDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", store.DataDirectory, err)
	}

	return store, nil
}

// SnapshotPath returns the full path of the snapshot blob.
func (se *SnapshotStorageEngine) SnapshotPath() string {
	return filepath.Join(se.DataDirectory, SnapshotFileName)
}

// WriteSnapshotFile encodes the map and writes it in one atomic
// rename-into-place step, so a crash mid-write leaves the previous
// snapshot intact.
func (se *SnapshotStorageEngine) WriteSnapshotFile(files map[string]*models.File) error {
	data, err := EncodeSnapshot(files)
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	if err := atomic.WriteFile(se.SnapshotPath(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error writing snapshot file %s: %w", se.SnapshotPath(), err)
	}

	se.logger.Infof("Saved %d files snapshot to disk", len(files))

	return nil
}

// LoadSnapshotFile restores the persisted map. A missing file is not
// an error: the store simply starts empty. A present but unreadable or
// corrupt file is an error, which the startup path treats as fatal.
func (se *SnapshotStorageEngine) LoadSnapshotFile() (map[string]*models.File, error) {
	path := se.SnapshotPath()

	if !helpers.FileExists(path, se.logger) {
		se.logger.Infof("Snapshot file %s does not exist, starting with empty storage", path)
		return make(map[string]*models.File), nil
	}

	snapshotFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot file %s: %w", path, err)
	}
	defer snapshotFile.Close()

	stat, err := snapshotFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot file stats: %w", err)
	}

	fileSize := int(stat.Size())
	if fileSize == 0 {
		// Zero-length snapshot decodes to an empty store.
		return make(map[string]*models.File), nil
	}

	// Memory map the file for the decode pass
	data, err := unix.Mmap(int(snapshotFile.Fd()), 0, fileSize, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("error memory mapping snapshot file %s: %w", path, err)
	}
	defer unix.Munmap(data)

	files, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding snapshot file %s: %w", path, err)
	}

	se.logger.Infof("Loaded %d files from disk", len(files))

	return files, nil
}

// ExportFiles writes every document as its own payload file under a
// timestamped directory and returns that directory's path.
func (se *SnapshotStorageEngine) ExportFiles(files map[string]*models.File) (string, error) {
	date := time.Now().Format("20060102150405")
	exportDir := filepath.Join(se.DataDirectory, exportDirName, date)

	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", exportDir, err)
	}

	for fileID, file := range files {
		payload, err := EncodeFile(file)
		if err != nil {
			return "", err
		}

		exportPath := filepath.Join(exportDir, fileID+".bin")
		if err := atomic.WriteFile(exportPath, bytes.NewReader(payload)); err != nil {
			return "", fmt.Errorf("error writing export file %s: %w", exportPath, err)
		}
	}

	se.logger.Infof("Exported %d files to %s", len(files), exportDir)

	return exportDir, nil
}
