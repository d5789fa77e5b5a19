package brickpick

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

// planFileVersion guards against loading plan files written by an
// incompatible format.
const planFileVersion = 1

type planFile struct {
	Version     int                `json:"version"`
	Allocations []parts.Allocation `json:"allocations"`
}

// SavePlan persists a pickup plan to disk atomically so a later session
// can resume marking parts as found against it.
func SavePlan(path string, plan *parts.PickupPlan) error {
	data, err := json.MarshalIndent(planFile{
		Version:     planFileVersion,
		Allocations: plan.Allocations,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errors.CacheWriteError{Path: path, Err: err}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &errors.CacheWriteError{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &errors.CacheWriteError{Path: path, Err: err}
	}
	return nil
}

// LoadPlan reads a previously saved pickup plan. A missing file yields
// ErrNotFound; an unparsable one yields a CorruptError.
func LoadPlan(path string) (*parts.PickupPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("plan file %s: %w", path, errors.ErrNotFound)
		}
		return nil, err
	}

	var file planFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &errors.CorruptError{Path: path, Err: err}
	}
	if file.Version != planFileVersion {
		return nil, &errors.CorruptError{Path: path, Err: fmt.Errorf("unsupported plan version %d", file.Version)}
	}
	return &parts.PickupPlan{Allocations: file.Allocations}, nil
}
