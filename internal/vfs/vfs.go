// Package vfs implements the runtime's in-memory virtual filesystem: a
// single path -> file mapping manipulated by the tool
// executor on the LLM's behalf. There is no directory tree type; directories
// are inferred from path prefixes, keeping every operation a straightforward
// scan over the map.
package vfs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/bmatcuk/doublestar/v4"
)

// DirectoryMarker is the reserved file name written by Mkdir to record an
// otherwise-empty directory. It is excluded from glob results.
const DirectoryMarker = ".directory"

var (
	// ErrInvalidPath is returned whenever an operation is given a path that
	// is not absolute (does not start with "/").
	ErrInvalidPath = errors.New("path must be absolute")
	// ErrFileNotFound is returned by Read and Edit for a missing path.
	ErrFileNotFound = errors.New("file not found")
)

// StringNotFoundError is returned by Edit when oldString has zero
// occurrences in the file's content.
type StringNotFoundError struct {
	Path      string
	OldString string
	Hint      string
}

func (e *StringNotFoundError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("old_string not found in %s", e.Path)
	}
	return fmt.Sprintf("old_string not found in %s (closest existing text: %q)", e.Path, e.Hint)
}

// AmbiguousEditError is returned by Edit when oldString has more than one
// occurrence in the file's content.
type AmbiguousEditError struct {
	Path        string
	Occurrences int
}

func (e *AmbiguousEditError) Error() string {
	return fmt.Sprintf("old_string appears %d times in %s; provide more surrounding context so the match is unique", e.Occurrences, e.Path)
}

// VirtualFile is one entry in the VFS.
type VirtualFile struct {
	Content    string
	CreatedAt  time.Time
	ModifiedAt time.Time
	SizeBytes  int
}

// VFS is the in-memory filesystem. The zero value is not usable; use New.
type VFS struct {
	mu    sync.RWMutex
	files map[string]*VirtualFile
}

// New returns an empty VFS.
func New() *VFS {
	return &VFS{files: make(map[string]*VirtualFile)}
}

func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

// Write creates or overwrites path with content. CreatedAt is preserved
// across an overwrite; ModifiedAt always advances.
func (v *VFS) Write(path, content string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	existing, ok := v.files[path]
	created := now
	if ok {
		created = existing.CreatedAt
	}
	v.files[path] = &VirtualFile{
		Content:    content,
		CreatedAt:  created,
		ModifiedAt: now,
		SizeBytes:  len(content),
	}
	return nil
}

// Read returns the content at path or ErrFileNotFound.
func (v *VFS) Read(path string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, ok := v.files[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return f.Content, nil
}

// Stat returns file metadata without the content.
func (v *VFS) Stat(path string) (*VirtualFile, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, ok := v.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	cp := *f
	return &cp, nil
}

// Edit requires the file to exist and oldString to occur exactly once;
// on success it replaces that occurrence with newString and returns.
func (v *VFS) Edit(path, oldString, newString string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	f, ok := v.files[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	count := strings.Count(f.Content, oldString)
	switch {
	case count == 0:
		return &StringNotFoundError{Path: path, OldString: oldString, Hint: closestSubstring(f.Content, oldString)}
	case count > 1:
		return &AmbiguousEditError{Path: path, Occurrences: count}
	}

	newContent := strings.Replace(f.Content, oldString, newString, 1)
	now := time.Now()
	v.files[path] = &VirtualFile{
		Content:    newContent,
		CreatedAt:  f.CreatedAt,
		ModifiedAt: now,
		SizeBytes:  len(newContent),
	}
	return nil
}

// closestSubstring finds the line in content most similar to target by
// normalized Levenshtein distance, purely to enrich a StringNotFoundError's
// diagnostic text. It never changes whether the edit succeeds.
func closestSubstring(content, target string) string {
	if content == "" || target == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	best := ""
	bestSim := 0.0
	for _, line := range lines {
		sim := similarity(line, target)
		if sim > bestSim {
			bestSim = sim
			best = line
		}
	}
	if bestSim < 0.4 {
		return ""
	}
	return strings.TrimSpace(best)
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if len(a) > 10000 || len(b) > 10000 {
		maxLen, minLen := len(a), len(b)
		if minLen > maxLen {
			maxLen, minLen = minLen, maxLen
		}
		return float64(minLen) / float64(maxLen)
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// List returns the direct children of dirPath: entries whose path, after
// dirPath's prefix, contains no further "/". Both files and inferred
// subdirectories are returned, sorted lexicographically; subdirectories are
// distinguished with a trailing "/".
func (v *VFS) List(dirPath string) ([]string, error) {
	if err := validatePath(dirPath); err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(dirPath, "/") + "/"

	v.mu.RLock()
	defer v.mu.RUnlock()

	seen := make(map[string]bool)
	var entries []string
	for path := range v.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if rest == "" {
			continue
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name := rest[:idx+1]
			if !seen[name] {
				seen[name] = true
				entries = append(entries, name)
			}
			continue
		}
		if !seen[rest] {
			seen[rest] = true
			entries = append(entries, rest)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// Mkdir records an otherwise-empty directory by writing a DirectoryMarker
// sentinel file underneath it. Implicit directory creation through Write
// makes this affordance unnecessary for any other operation; it exists for
// compatibility with hosts that want to pre-declare empty directories.
func (v *VFS) Mkdir(dirPath string) error {
	marker := strings.TrimSuffix(dirPath, "/") + "/" + DirectoryMarker
	return v.Write(marker, "")
}

// Glob matches pattern (supporting *, **, ?, [...]) against full absolute
// paths, resolved relative to basePath when pattern is not itself absolute.
// DirectoryMarker entries are always excluded. Results are sorted
// lexicographically.
func (v *VFS) Glob(pattern, basePath string) ([]string, error) {
	if basePath == "" {
		basePath = "/"
	}
	if err := validatePath(basePath); err != nil {
		return nil, err
	}

	full := pattern
	if !strings.HasPrefix(pattern, "/") {
		full = strings.TrimSuffix(basePath, "/") + "/" + pattern
	}
	full = strings.TrimPrefix(full, "/")

	v.mu.RLock()
	defer v.mu.RUnlock()

	var matches []string
	for path := range v.files {
		if strings.HasSuffix(path, "/"+DirectoryMarker) || path == "/"+DirectoryMarker {
			continue
		}
		rel := strings.TrimPrefix(path, "/")
		ok, err := doublestar.Match(full, rel)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// Documents returns every path currently in the VFS whose prefix does not
// match the agent-definition exclusion rule (/.bmad-core/agents/ or any
// /.bmad-*/agents/ directory), sorted lexicographically. This is the set
// surfaced as SessionResult.Documents.
func (v *VFS) Documents() []struct {
	Path    string
	Content string
} {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []struct {
		Path    string
		Content string
	}
	for path, f := range v.files {
		if strings.HasSuffix(path, "/"+DirectoryMarker) {
			continue
		}
		if isAgentDefinitionPath(path) {
			continue
		}
		out = append(out, struct {
			Path    string
			Content string
		}{Path: path, Content: f.Content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// isAgentDefinitionPath implements the exclusion rule of §4.2: any path
// whose prefix is /.bmad-core/agents/ or /.bmad-<pack>/agents/.
func isAgentDefinitionPath(path string) bool {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 3 {
		return false
	}
	if !strings.HasPrefix(parts[0], ".bmad-") {
		return false
	}
	return parts[1] == "agents"
}

// Snapshot copies every path -> content pair, for SessionState serialization.
func (v *VFS) Snapshot() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]string, len(v.files))
	for path, f := range v.files {
		out[path] = f.Content
	}
	return out
}

// Restore replaces the VFS's contents with the given path -> content map,
// used when deserializing a SessionState. CreatedAt/ModifiedAt are both set
// to the restore time since the original timestamps are not persisted.
func (v *VFS) Restore(files map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	v.files = make(map[string]*VirtualFile, len(files))
	for path, content := range files {
		v.files[path] = &VirtualFile{Content: content, CreatedAt: now, ModifiedAt: now, SizeBytes: len(content)}
	}
}

// Exists reports whether path is present.
func (v *VFS) Exists(path string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.files[path]
	return ok
}

// Len returns the number of entries, including directory markers.
func (v *VFS) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.files)
}
