package patterns

import "errors"

var (
	ErrEmptyPattern   = errors.New("empty file pattern")
	ErrInvalidPattern = errors.New("invalid file pattern")
)
