// Package archive persists the final snapshot a task reaches at
// COMMIT -> ARCHIVE, one data/archives/<task_id>.json file per task.
// Grounded on pkg/workingstate/store.go's temp-file-then-rename durability
// idiom, applied to the whole Task record instead of its transcript alone.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Store writes one JSON snapshot per task under dir/<task_id>.json.
type Store struct {
	dir string
}

// New constructs a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

// Write atomically persists task's current state as its archival snapshot.
// Each call overwrites the previous snapshot for the same task_id: the
// immutable record of a task's history is the Episodic Log's decision rows,
// not this file, which always reflects the task's most recent turn.
func (s *Store) Write(task *jarvismodel.Task) error {
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling archive snapshot for %s: %w", task.TaskID, err)
	}

	tmp, err := os.CreateTemp(s.dir, task.TaskID+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp archive file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp archive file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsyncing temp archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp archive file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(task.TaskID)); err != nil {
		return fmt.Errorf("renaming archive file for %s: %w", task.TaskID, err)
	}
	return nil
}

// Load reads a task's archival snapshot, or (nil, nil) if it has never been
// archived.
func (s *Store) Load(taskID string) (*jarvismodel.Task, error) {
	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive snapshot for %s: %w", taskID, err)
	}
	var task jarvismodel.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("parsing archive snapshot for %s: %w", taskID, err)
	}
	return &task, nil
}
