package index

import "github.com/starford/todoseq/internal/models"

// TaskIndex defines the interface for task indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type TaskIndex interface {
	ReplaceFileTasks(f FileRow, tasks []models.Task) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListTasks(f TaskFilter) ([]models.Task, int, error)
	FileTasks(path string) ([]models.Task, error)
	Search(query string, limit int) ([]SearchResult, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies TaskIndex at compile time.
var _ TaskIndex = (*DB)(nil)
