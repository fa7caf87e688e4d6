package rules

import (
	"fmt"

	"dropwatch/internal/patterns"
)

// Rule is one watch rule: files in SourcePath whose base name matches
// FilePattern get Action applied against TargetPath. Rules are built once
// at startup and only read afterwards.
type Rule struct {
	SourcePath  string
	FilePattern string
	TargetPath  string
	Action      Action

	matcher *patterns.Matcher
}

// New validates the fields and compiles the pattern.
func New(source, pattern, target, action string) (*Rule, error) {
	r := &Rule{
		SourcePath:  source,
		FilePattern: pattern,
		TargetPath:  target,
		Action:      ParseAction(action),
	}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

// Matches reports whether path's base name matches the rule's pattern.
func (r *Rule) Matches(path string) bool {
	return r.matcher.Match(path)
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s [%s] -> %s (%s)", r.SourcePath, r.FilePattern, r.TargetPath, r.Action)
}

func (r *Rule) init() error {
	switch {
	case r.SourcePath == "":
		return fmt.Errorf("%w: source-path is empty", ErrInvalidRule)
	case r.TargetPath == "":
		return fmt.Errorf("%w: target-path is empty", ErrInvalidRule)
	}

	m, err := patterns.Compile(r.FilePattern)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	r.matcher = m
	return nil
}
