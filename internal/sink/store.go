package sink

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultNamespace is the directory, relative to the output root, that holds
// every artifact.
const DefaultNamespace = "centrifuge"

// Store is the persistent backing for sinks. Names are annotation simple
// names; the store decides where they live.
type Store interface {
	// Open creates (or truncates) the named artifact.
	Open(name string) error

	// Write replaces the named artifact's content with data.
	Write(name string, data []byte) error
}

// FileStore keeps artifacts as plain files under <root>/<namespace>/.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at outputDir. An empty namespace uses
// DefaultNamespace.
func NewFileStore(outputDir, namespace string) *FileStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &FileStore{dir: filepath.Join(outputDir, namespace)}
}

// Dir returns the namespace directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file path of the named artifact.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Open(name string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", name, err)
	}
	return f.Close()
}

// Write writes data to a temp file next to the artifact and renames it over
// the artifact, so readers never observe a partial write.
func (s *FileStore) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.Path(name)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
