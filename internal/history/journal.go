// Package history keeps a bbolt journal of dispatch attempts.
package history

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const DispatchesBucket = "dispatches"

// Journal stores Records keyed by time so iteration is chronological.
type Journal struct {
	db         *bbolt.DB
	serializer Serializer
}

type Config struct {
	Path       string
	FileMode   os.FileMode
	Options    *bbolt.Options
	Serializer Serializer
}

func Open(cfg Config) (*Journal, error) {
	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0600
	}
	if cfg.Options == nil {
		cfg.Options = &bbolt.Options{Timeout: time.Second}
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal dir: %w", err)
		}
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, cfg.Options)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(DispatchesBucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	return &Journal{
		db:         db,
		serializer: cfg.Serializer,
	}, nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return ErrNilDB
	}
	return j.db.Close()
}

// Append stores rec, filling in ID and At when they are empty.
func (j *Journal) Append(rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", rec.ID, err)
	}

	data, err := j.serializer.Serialize(rec)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(DispatchesBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}
		return bucket.Put(recordKey(rec.At, id), data)
	})
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) ([]Record, error) {
	var out []Record

	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(DispatchesBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec Record
			if err := j.serializer.Deserialize(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func recordKey(at time.Time, id uuid.UUID) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(at.UnixNano()))
	copy(key[8:], id[:])
	return key
}
