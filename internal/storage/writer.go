package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/qepting91/saved-response/internal/domain"
)

// Journal appends one NDJSON line per dispatch. Safe for concurrent use.
type Journal struct {
	FilePath string

	mu sync.Mutex
}

func (j *Journal) Record(rec domain.ActionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(j.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	// Write as NDJSON
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Load reads every record in the journal at path, skipping lines that do
// not decode. A missing file is an empty journal.
func Load(path string) ([]domain.ActionRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.ActionRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.ActionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, scanner.Err()
}
