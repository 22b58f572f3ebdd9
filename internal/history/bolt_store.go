package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const recordsBucket = "records"

// BoltStore persists the history in a bbolt database. Keys are big-endian
// sequence numbers, so byte order equals insertion order and the oldest
// record is always first under a cursor. Dedup, append and eviction run in a
// single update transaction.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
	cap int
}

// NewBoltStore opens or creates the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(recordsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now, cap: MaxRecords}, nil
}

// Append parses rawContent and appends a timestamped record unless it matches
// the newest record byte for byte.
func (s *BoltStore) Append(url, rawContent string) (bool, error) {
	var added bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(recordsBucket))

		if _, value := bucket.Cursor().Last(); value != nil {
			var last Record
			if err := json.Unmarshal(value, &last); err != nil {
				return fmt.Errorf("unmarshaling last record: %w", err)
			}
			if last.RawContent == rawContent {
				return nil
			}
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating sequence: %w", err)
		}
		data, err := json.Marshal(newRecord(url, rawContent, s.now()))
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		if err := bucket.Put(sequenceKey(seq), data); err != nil {
			return fmt.Errorf("storing record: %w", err)
		}
		added = true

		return evictOldest(bucket, s.cap)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// LastRawContent returns the newest record's raw content, or "" when the
// history is empty.
func (s *BoltStore) LastRawContent() (string, error) {
	var raw string
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, value := tx.Bucket([]byte(recordsBucket)).Cursor().Last()
		if value == nil {
			return nil
		}
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("unmarshaling record: %w", err)
		}
		raw = rec.RawContent
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// LoadAll returns all records in insertion order.
func (s *BoltStore) LoadAll() ([]Record, error) {
	records := make([]Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LoadSince returns records with a timestamp at or after since.
func (s *BoltStore) LoadSince(since time.Time) ([]Record, error) {
	records, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	return filterSince(records, since), nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// evictOldest deletes records from the front of the bucket until at most cap
// remain.
func evictOldest(bucket *bbolt.Bucket, cap int) error {
	count := 0
	if err := bucket.ForEach(func(k, v []byte) error { count++; return nil }); err != nil {
		return err
	}
	for count > cap {
		key, _ := bucket.Cursor().First()
		if key == nil {
			return nil
		}
		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("evicting record: %w", err)
		}
		count--
	}
	return nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
