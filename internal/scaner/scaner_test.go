package scaner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropwatch/internal/registry"
	"dropwatch/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileScaner_ScanRule(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested.csv"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested.csv", "deep.csv"), []byte("x"), 0644))

	rule, err := rules.New(src, "*.csv", t.TempDir(), "copy")
	require.NoError(t, err)

	reg := registry.New()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(reg, nil)
	s.now = func() time.Time { return fixed }

	n, err := s.ScanRule(rule)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{filepath.Join(src, "a.csv"), filepath.Join(src, "b.csv")}, reg.SnapshotKeys())

	e, ok := reg.Peek(filepath.Join(src, "a.csv"))
	require.True(t, ok)
	assert.Equal(t, fixed, e.LastEvent)
	assert.Same(t, rule, e.Rule)
}

func TestFileScaner_AlreadyTracked(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	rule, err := rules.New(src, "*.csv", t.TempDir(), "copy")
	require.NoError(t, err)

	reg := registry.New()
	reg.Upsert(path, time.Now(), rule)

	n, err := New(reg, nil).ScanRule(rule)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, reg.Len())
}

func TestFileScaner_MissingSource(t *testing.T) {
	rule, err := rules.New(filepath.Join(t.TempDir(), "absent"), "*", t.TempDir(), "copy")
	require.NoError(t, err)

	_, err = New(registry.New(), nil).ScanRule(rule)
	assert.Error(t, err)
}

func TestFileScaner_Ignore(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".dropwatch-1.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f.dat"), []byte("x"), 0644))

	rule, err := rules.New(src, "*", t.TempDir(), "copy")
	require.NoError(t, err)

	reg := registry.New()
	n, err := New(reg, nil, ".dropwatch-").ScanRule(rule)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{filepath.Join(src, "f.dat")}, reg.SnapshotKeys())
}
