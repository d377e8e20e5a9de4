// Package sandbox implements the filesystem Sandbox: every tool that
// touches the filesystem goes through here, never through raw os.* calls,
// so allowed-root containment, permission flags, and size caps are
// enforced in exactly one place. Grounded on tarsy's config-
// validated, constructor-immutable registry shape (pkg/config/queue.go's
// DefaultQueueConfig / validate-then-freeze idiom) generalized from "a
// validated config struct" to "a validated, immutable filesystem gate".
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Sandbox is an immutable, permission-gated filesystem gate rooted at one
// or more allowed directories.
type Sandbox struct {
	allowedRoots   []string // each an absolute, symlink-resolved directory
	readEnabled    bool
	writeEnabled   bool
	deleteEnabled  bool
	maxReadBytes   int64
	maxWriteBytes  int64
	maxListEntries int
	maxVisited     int
}

// New constructs a Sandbox, resolving and validating every allowed root up
// front so later operations never have to re-check root validity.
func New(allowedRoots []string, readEnabled, writeEnabled, deleteEnabled bool, maxReadBytes, maxWriteBytes int64, maxListEntries, maxVisited int) (*Sandbox, error) {
	if len(allowedRoots) == 0 {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "sandbox requires at least one allowed root", nil)
	}
	resolved := make([]string, 0, len(allowedRoots))
	for _, root := range allowedRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving sandbox root %q: %w", root, err)
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			if os.IsNotExist(err) {
				if mkErr := os.MkdirAll(abs, 0o755); mkErr != nil {
					return nil, fmt.Errorf("creating sandbox root %q: %w", root, mkErr)
				}
				real = abs
			} else {
				return nil, fmt.Errorf("resolving sandbox root %q: %w", root, err)
			}
		}
		resolved = append(resolved, real)
	}
	return &Sandbox{
		allowedRoots:   resolved,
		readEnabled:    readEnabled,
		writeEnabled:   writeEnabled,
		deleteEnabled:  deleteEnabled,
		maxReadBytes:   maxReadBytes,
		maxWriteBytes:  maxWriteBytes,
		maxListEntries: maxListEntries,
		maxVisited:     maxVisited,
	}, nil
}

// resolvePath validates that path resolves (after following symlinks) to a
// location inside one of the allowed roots, returning the resolved absolute
// path. Rejects any attempt to escape via "..", an absolute path outside
// the roots, or a symlink pointing outside.
func (s *Sandbox) resolvePath(path string) (string, error) {
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(s.allowedRoots[0], path)
	}

	real := abs
	if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
		real = evaluated
	} else if os.IsNotExist(err) {
		// A target that does not exist yet is resolved through its nearest
		// existing ancestor, so a symlinked parent directory is followed too.
		rest := filepath.Base(abs)
		for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
			if evaluated, err := filepath.EvalSymlinks(dir); err == nil {
				real = filepath.Join(evaluated, rest)
				break
			}
			if dir == filepath.Dir(dir) {
				break
			}
			rest = filepath.Join(filepath.Base(dir), rest)
		}
	} else {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}

	for _, root := range s.allowedRoots {
		if real == root || strings.HasPrefix(real, root+string(os.PathSeparator)) {
			return real, nil
		}
	}
	return "", jarvismodel.NewCodedError(jarvismodel.CodePathNotAllowed, "path escapes allowed sandbox roots", map[string]any{"path": path})
}

// ReadText reads a file's contents as text, enforcing the read-enabled flag
// and the max-read-bytes cap.
func (s *Sandbox) ReadText(path string) (string, error) {
	if !s.readEnabled {
		return "", jarvismodel.NewCodedError(jarvismodel.CodePathNotAllowed, "sandbox reads are disabled", nil)
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("statting %q: %w", path, err)
	}
	if s.maxReadBytes > 0 && info.Size() > s.maxReadBytes {
		return "", jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "file exceeds maximum readable size", map[string]any{"path": path, "size": info.Size()})
	}

	data, err := os.ReadFile(real)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", path, err)
	}
	return string(data), nil
}

// WriteText writes content to path, enforcing the write-enabled flag and
// the max-write-bytes cap.
func (s *Sandbox) WriteText(path, content string) error {
	if !s.writeEnabled {
		return jarvismodel.NewCodedError(jarvismodel.CodeWriteNotAllowed, "sandbox writes are disabled", nil)
	}
	if s.maxWriteBytes > 0 && int64(len(content)) > s.maxWriteBytes {
		return jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "content exceeds maximum writable size", map[string]any{"path": path, "size": len(content)})
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %q: %w", path, err)
	}
	return os.WriteFile(real, []byte(content), 0o644)
}

// Delete removes a file, enforcing the delete-enabled flag.
func (s *Sandbox) Delete(path string) error {
	if !s.deleteEnabled {
		return jarvismodel.NewCodedError(jarvismodel.CodeDeleteNotAllowed, "sandbox deletes are disabled", nil)
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return err
	}
	return os.Remove(real)
}

// Entry is one directory-listing row.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ListDir lists path's immediate children, sorted by name, bounded by
// max_list_entries.
func (s *Sandbox) ListDir(path string) ([]Entry, error) {
	if !s.readEnabled {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodePathNotAllowed, "sandbox reads are disabled", nil)
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(real)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", path, err)
	}

	names := make([]string, len(dirEntries))
	for i, e := range dirEntries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	if s.maxListEntries > 0 && len(names) > s.maxListEntries {
		names = names[:s.maxListEntries]
	}

	byName := make(map[string]fs.DirEntry, len(dirEntries))
	for _, e := range dirEntries {
		byName[e.Name()] = e
	}

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		e := byName[name]
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: name, IsDir: e.IsDir(), Size: info.Size()})
	}
	return out, nil
}

// FileInfo reports metadata about a path without reading its contents.
func (s *Sandbox) FileInfo(path string) (Entry, error) {
	if !s.readEnabled {
		return Entry{}, jarvismodel.NewCodedError(jarvismodel.CodePathNotAllowed, "sandbox reads are disabled", nil)
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return Entry{}, fmt.Errorf("statting %q: %w", path, err)
	}
	return Entry{Name: info.Name(), IsDir: info.IsDir(), Size: info.Size()}, nil
}

// Search walks path and returns the relative paths of files whose base
// name matches the glob pattern query (filepath.Match syntax: "*", "?",
// "[...]"), sorted lexicographically. Bounded by max_visited entries
// walked; exceeding that cap aborts the search with search_limit_exceeded
// rather than silently returning a partial result.
func (s *Sandbox) Search(path, query string) ([]string, error) {
	if !s.readEnabled {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodePathNotAllowed, "sandbox reads are disabled", nil)
	}
	real, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if _, err := filepath.Match(query, ""); err != nil {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "invalid search glob: "+err.Error(), map[string]any{"query": query})
	}

	var matches []string
	visited := 0
	walkErr := filepath.WalkDir(real, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the whole search
		}
		if d.IsDir() {
			return nil
		}
		visited++
		if s.maxVisited > 0 && visited > s.maxVisited {
			return errSearchLimitExceeded
		}

		ok, matchErr := filepath.Match(query, d.Name())
		if matchErr != nil || !ok {
			return nil
		}
		rel, relErr := filepath.Rel(real, p)
		if relErr != nil {
			rel = p
		}
		matches = append(matches, rel)
		return nil
	})
	if walkErr != nil {
		if walkErr == errSearchLimitExceeded {
			return nil, jarvismodel.NewCodedError(jarvismodel.CodeSearchLimitExceeded,
				"search visited more than the maximum allowed number of entries", map[string]any{"max_visited": s.maxVisited})
		}
		return nil, fmt.Errorf("searching %q: %w", path, walkErr)
	}
	sort.Strings(matches)
	return matches, nil
}

// errSearchLimitExceeded signals filepath.WalkDir to stop as soon as the
// max_visited cap is crossed, distinct from a genuine filesystem error.
var errSearchLimitExceeded = errors.New("sandbox: search limit exceeded")
