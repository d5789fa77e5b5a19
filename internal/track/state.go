package track

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bricktools/brickpick/pkg/errors"
)

// FoundRecord is one persisted found count: a part at a location and how
// many pieces of it have been retrieved.
type FoundRecord struct {
	PartNumber string `json:"part_num"`
	ColorID    int    `json:"color_id"`
	Location   string `json:"location"`
	Found      int    `json:"found"`
}

// FoundState is an immutable snapshot of found progress, suitable for
// persistence and for seeding a tracker in a later session.
type FoundState []FoundRecord

// stateFile is the on-disk envelope for a found-state snapshot.
type stateFile struct {
	Version int        `json:"version"`
	Found   FoundState `json:"found"`
}

// stateFileVersion identifies the current snapshot layout.
const stateFileVersion = 1

// SaveState writes a snapshot atomically: temp file in the destination
// directory, then rename. A crash mid-save leaves either the previous or the
// new complete state on disk, never a truncated file.
func SaveState(path string, state FoundState) error {
	if state == nil {
		state = FoundState{}
	}
	data, err := json.MarshalIndent(stateFile{Version: stateFileVersion, Found: state}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// LoadState reads a snapshot from disk. A missing file yields an empty
// state; a structurally invalid file yields a CorruptError so the caller
// can degrade to empty with a warning.
func LoadState(path string) (FoundState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FoundState{}, nil
		}
		return nil, err
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &errors.CorruptError{Path: path, Err: err}
	}
	if file.Version != stateFileVersion {
		return nil, &errors.CorruptError{Path: path, Err: errors.New("unsupported state file version")}
	}
	for _, rec := range file.Found {
		if rec.PartNumber == "" || rec.Location == "" || rec.Found < 0 {
			return nil, &errors.CorruptError{Path: path, Err: errors.New("malformed found record")}
		}
	}
	return file.Found, nil
}
