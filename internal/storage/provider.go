// Package storage defines the read-only vault file-system abstraction.
package storage

import "github.com/starford/todoseq/internal/models"

// Provider is the interface for vault file access. The vault is never
// written to.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Stat returns metadata for the single file at path.
	Stat(path string) (models.FileMetadata, error)
}
