package history

import (
	"time"

	"github.com/akoval/checkwatch/internal/receipt"
)

// MaxRecords bounds the persisted history: once the count exceeds it, the
// oldest records are evicted in insertion order.
const MaxRecords = 1000

// Record is one fetch cycle's result. Timestamp is set at save time and kept
// as a string so records with hand-edited or legacy timestamps still load.
type Record struct {
	Timestamp  string             `json:"timestamp"`
	URL        string             `json:"url"`
	RawContent string             `json:"raw_content"`
	Items      []receipt.SaleItem `json:"sales_data"`
}

// Store is the append-only receipt history with byte-exact change detection.
// Append parses rawContent, wraps it with the current timestamp and appends it
// unless it equals the most recent record's raw content; the bool reports
// whether a record was written. Load methods return copy-on-read snapshots in
// insertion order. Errors are storage failures only; absence of data is an
// empty result.
type Store interface {
	Append(url, rawContent string) (bool, error)
	LastRawContent() (string, error)
	LoadAll() ([]Record, error)
	LoadSince(since time.Time) ([]Record, error)
	Close() error
}

// timestampFormats are tried in order when reading a record's timestamp.
// The second form covers records written without a zone offset.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a stored record timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, format := range timestampFormats {
		var t time.Time
		if t, err = time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// filterSince keeps records with a parseable timestamp at or after since.
// Records with unparseable timestamps are dropped silently.
func filterSince(records []Record, since time.Time) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		ts, err := ParseTimestamp(rec.Timestamp)
		if err != nil {
			continue
		}
		if !ts.Before(since) {
			out = append(out, rec)
		}
	}
	return out
}
