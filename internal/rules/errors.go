package rules

import "errors"

var (
	ErrNoRules     = errors.New("no directory rules configured")
	ErrInvalidRule = errors.New("invalid directory rule")
)
