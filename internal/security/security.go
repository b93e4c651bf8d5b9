package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager enforces a filesystem allow-list for load_file paths. It resolves
// and stores canonical absolute directory roots and validates that requested
// files are contained within one of them. Format dispatch stays with the
// ingestion adapter; the manager only decides reachability.
type Manager struct {
	allowedDirs []string
}

// ErrNotAllowed indicates the requested path is outside the allow-list roots.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// NewManager constructs a security manager from an allow-list of directories.
// Directories are canonicalized (absolute + EvalSymlinks) and validated.
func NewManager(allowDirs []string) (*Manager, error) {
	canonical := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		d = strings.TrimSpace(d)
		if d == "" { // skip empties
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("security: resolve abs for %q: %w", d, err)
		}
		// EvalSymlinks so that symlinked roots cannot be used to escape later.
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("security: stat %q: %w", real, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("security: allow-list entry is not a directory: %q", real)
		}
		canonical = append(canonical, filepath.Clean(real))
	}

	return &Manager{allowedDirs: canonical}, nil
}

// NewManagerFromEnv constructs a Manager from environment variable
// DATALENS_ALLOWED_DIRS as a path list separated by os.PathListSeparator.
// When the variable is unset it returns (nil, nil): path access is
// unrestricted and callers skip validation entirely.
func NewManagerFromEnv() (*Manager, error) {
	list := os.Getenv("DATALENS_ALLOWED_DIRS")
	if list == "" {
		return nil, nil
	}
	return NewManager(filepath.SplitList(list))
}

// AllowedDirectories returns the canonical allow-list roots.
func (m *Manager) AllowedDirectories() []string {
	out := make([]string, len(m.allowedDirs))
	copy(out, m.allowedDirs)
	return out
}

// ValidateConfig returns an error when no allow-list entries are configured.
func (m *Manager) ValidateConfig() error {
	if len(m.allowedDirs) == 0 {
		return errors.New("security: no allowed directories configured")
	}
	return nil
}

// ValidateOpenPath ensures the input path refers to an existing entry inside
// one of the configured allow-list directories. It returns the canonical
// absolute path suitable for opening. Regular-file checks remain with the
// ingestion adapter so its error taxonomy stays authoritative.
func (m *Manager) ValidateOpenPath(input string) (string, error) {
	if input == "" {
		return "", ErrNotAllowed
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}

	// Containment: the resolved path must sit under one of the roots.
	for _, root := range m.allowedDirs {
		rel, err := filepath.Rel(root, real)
		if err != nil {
			continue
		}
		if rel == "." || rel == "" {
			// exact root match; a root itself is not loadable
			continue
		}
		if !strings.HasPrefix(rel, "..") && !strings.HasPrefix(filepath.Clean(rel), "..") {
			return real, nil
		}
	}
	return "", ErrNotAllowed
}
