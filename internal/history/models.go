package history

import (
	"bytes"
	"encoding/gob"
	"time"
)

// Dispatch outcome statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Record is one dispatch attempt.
type Record struct {
	ID          string
	Path        string
	Destination string
	Action      string
	Status      string
	Error       string
	At          time.Time
}

// Serializer converts records to and from their stored form.
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

// GobSerializer implements Serializer with encoding/gob.
type GobSerializer struct{}

func (s *GobSerializer) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer) Deserialize(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
