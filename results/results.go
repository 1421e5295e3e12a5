// Package results persists rendered tables that are too large for a chat message,
// so the HTTP server can deliver them as downloadable text files instead.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes and reads result files under a data directory.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store { return &Store{Dir: dir} }

// Save persists content and returns the opaque result id.
func (s *Store) Save(content string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	id := uuid.New().String()
	if err := os.WriteFile(s.path(id), []byte(content), 0o640); err != nil {
		return "", fmt.Errorf("write result file: %w", err)
	}
	return id, nil
}

// Read returns the stored content for id, or an error when absent or invalid.
func (s *Store) Read(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Reject anything that isn't a generated id; ids come straight off URLs.
		return "", fmt.Errorf("invalid result id")
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, strings.ToLower(id)+".txt")
}
