// Package patterns matches file names against shell wildcards: *, ? and
// [...] classes with [!...] negation. Braces and backslashes are plain
// characters.
package patterns

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches base filenames against one shell-style glob.
type Matcher struct {
	pattern  string
	glob     glob.Glob
	foldCase bool
}

// Compile builds a Matcher. Case folding follows the host filesystem.
func Compile(pattern string) (*Matcher, error) {
	return compile(pattern, hostFoldsCase())
}

func compile(pattern string, foldCase bool) (*Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	expr := pattern
	if foldCase {
		expr = strings.ToLower(expr)
	}

	g, err := glob.Compile(literal(expr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}

	return &Matcher{
		pattern:  pattern,
		glob:     g,
		foldCase: foldCase,
	}, nil
}

// Match reports whether the base name of path matches the pattern.
func (m *Matcher) Match(path string) bool {
	name := filepath.Base(path)
	if m.foldCase {
		name = strings.ToLower(name)
	}
	return m.glob.Match(name)
}

func (m *Matcher) String() string {
	return m.pattern
}

// literal escapes the characters gobwas/glob reads as syntax outside a
// bracket class, {, } and \, so they match themselves.
func literal(pattern string) string {
	var b strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '{' || r == '}' || r == '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// windows and darwin volumes are case-insensitive by default
func hostFoldsCase() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}
