// Package workingstate implements the per-task ephemeral JSON document:
// one file per task, written atomically via a temp-file-
// then-rename swap so concurrent readers always see a fully-written
// document (grounded on the pack's own atomic-write idiom, e.g.
// evalgo-org-eve/network/downloader.go's download-to-temp-then-rename, and
// generalized from "download a file" to "persist a JSON document").
package workingstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Store persists one WorkingStateDoc per task under dir/<task_id>.json.
type Store struct {
	dir         string
	maxMessages int
}

// New constructs a Store rooted at dir, creating it if necessary. maxMessages
// bounds the transcript (default 50; 0 or negative falls back to 50).
func New(dir string, maxMessages int) (*Store, error) {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working state dir: %w", err)
	}
	return &Store{dir: dir, maxMessages: maxMessages}, nil
}

func (s *Store) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

// Load reads a task's working-state document. Returns (nil, nil) if the
// task has no document yet — callers create one on first use.
func (s *Store) Load(taskID string) (*jarvismodel.WorkingStateDoc, error) {
	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading working state for %s: %w", taskID, err)
	}
	var doc jarvismodel.WorkingStateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing working state for %s: %w", taskID, err)
	}
	return &doc, nil
}

// Save atomically persists doc, writing to a temp file in the same
// directory (so the rename is on the same filesystem/volume) and renaming
// it over the final path.
func (s *Store) Save(doc *jarvismodel.WorkingStateDoc) error {
	doc.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling working state for %s: %w", doc.TaskID, err)
	}

	tmp, err := os.CreateTemp(s.dir, doc.TaskID+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp working state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp working state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsyncing temp working state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp working state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(doc.TaskID)); err != nil {
		return fmt.Errorf("renaming working state file for %s: %w", doc.TaskID, err)
	}
	return nil
}

// AppendMessage loads (or creates) a task's document, appends one message
// bounded by the transcript cap (oldest dropped first), and saves it.
func (s *Store) AppendMessage(taskID string, role jarvismodel.Role, content string) (*jarvismodel.WorkingStateDoc, error) {
	doc, err := s.Load(taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &jarvismodel.WorkingStateDoc{
			TaskID:         taskID,
			Status:         jarvismodel.StateInit,
			CompletedSteps: []string{},
			NextSteps:      []string{},
		}
	}

	doc.Messages = append(doc.Messages, jarvismodel.Message{Role: role, Content: content})
	if over := len(doc.Messages) - s.maxMessages; over > 0 {
		doc.Messages = doc.Messages[over:]
	}

	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListRecentMessages returns the last n messages of a task's transcript
// (fewer if the transcript is shorter). Returns an empty slice, never an
// error, for a task with no document yet.
func (s *Store) ListRecentMessages(taskID string, n int) ([]jarvismodel.Message, error) {
	doc, err := s.Load(taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || n <= 0 {
		return nil, nil
	}
	if n >= len(doc.Messages) {
		return doc.Messages, nil
	}
	return doc.Messages[len(doc.Messages)-n:], nil
}
