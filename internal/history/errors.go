package history

import "errors"

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNilDB          = errors.New("database connection is nil")
	ErrNilRecord      = errors.New("record is nil")
)
