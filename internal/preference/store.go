package preference

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore appends records to a JSON-lines file, one record per line.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path, creating parent directories as
// needed. The file itself is created on first append.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Append implements Store.
func (s *FileStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open preference file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Query implements Store.
func (s *FileStore) Query(taskType string) ([]Record, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range all {
		if rec.TaskType == taskType {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All implements Store.
func (s *FileStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open preference file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			// Skip corrupt lines rather than losing the whole history.
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preference file: %w", err)
	}
	return records, nil
}

// MemoryStore keeps records in memory. Used when persistence is disabled
// and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(taskType string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.TaskType == taskType {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All implements Store.
func (s *MemoryStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...), nil
}
