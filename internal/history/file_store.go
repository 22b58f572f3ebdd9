package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akoval/checkwatch/internal/receipt"
)

// FileStore persists the history as a single JSON array file, the layout the
// dashboard tooling and older deployments expect. The mutex spans every
// read-modify-write so concurrent dashboard reads never interleave with a
// mid-append state, and writes go through a temp file plus rename so a crash
// leaves the last complete history intact.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
	cap  int
}

// NewFileStore opens or creates the history file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		now:  time.Now,
		cap:  MaxRecords,
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write([]Record{}); err != nil {
			return nil, fmt.Errorf("creating history file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking history file: %w", err)
	}
	return s, nil
}

// Append parses rawContent and appends a timestamped record unless it matches
// the newest record byte for byte.
func (s *FileStore) Append(url, rawContent string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return false, err
	}
	if len(records) > 0 && records[len(records)-1].RawContent == rawContent {
		return false, nil
	}

	records = append(records, newRecord(url, rawContent, s.now()))
	if len(records) > s.cap {
		records = records[len(records)-s.cap:]
	}
	if err := s.write(records); err != nil {
		return false, err
	}
	return true, nil
}

// LastRawContent returns the newest record's raw content, or "" when the
// history is empty.
func (s *FileStore) LastRawContent() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[len(records)-1].RawContent, nil
}

// LoadAll returns all records in insertion order.
func (s *FileStore) LoadAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// LoadSince returns records with a timestamp at or after since.
func (s *FileStore) LoadSince(since time.Time) ([]Record, error) {
	records, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	return filterSince(records, since), nil
}

// Close is a no-op; every operation opens and closes the file itself.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	records := make([]Record, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding history file: %w", err)
	}
	return records, nil
}

func (s *FileStore) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

func newRecord(url, rawContent string, now time.Time) Record {
	items := receipt.Parse(rawContent)
	if items == nil {
		items = []receipt.SaleItem{}
	}
	return Record{
		Timestamp:  now.Format(time.RFC3339),
		URL:        url,
		RawContent: rawContent,
		Items:      items,
	}
}
