package dispatcher

import "errors"

var (
	ErrNilRule      = errors.New("rule is nil")
	ErrVerifyFailed = errors.New("copied file does not match source")
)
