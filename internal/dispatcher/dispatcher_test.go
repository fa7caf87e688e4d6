package dispatcher

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"dropwatch/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHelper struct {
	in   string
	out  string
	logs *bytes.Buffer
	d    *Dispatcher
}

func setupTest(t *testing.T) *testHelper {
	t.Helper()

	root := t.TempDir()
	h := &testHelper{
		in:   filepath.Join(root, "in"),
		out:  filepath.Join(root, "out"),
		logs: &bytes.Buffer{},
	}
	require.NoError(t, os.MkdirAll(h.in, 0755))
	require.NoError(t, os.MkdirAll(h.out, 0755))

	h.d = New(slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return h
}

func (h *testHelper) rule(t *testing.T, action string) *rules.Rule {
	t.Helper()

	r, err := rules.New(h.in, "*.dat", h.out, action)
	require.NoError(t, err)
	return r
}

func (h *testHelper) drop(t *testing.T, name string, size int) string {
	t.Helper()

	path := filepath.Join(h.in, name)
	data := bytes.Repeat([]byte{'x'}, size)
	require.NoError(t, os.WriteFile(path, data, 0640))
	return path
}

func TestDispatcher_Copy(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 100)

	mtime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	res, err := h.d.Dispatch(context.Background(), src, h.rule(t, "copy"))
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, filepath.Join(h.out, "f.dat"), res.Destination)

	assert.FileExists(t, src)
	info, err := os.Stat(res.Destination)
	require.NoError(t, err)
	assert.Equal(t, int64(100), info.Size())
	assert.True(t, mtime.Equal(info.ModTime()), "modification time preserved")

	assert.Contains(t, h.logs.String(), "[COPY]")
	assert.Contains(t, h.logs.String(), src)

	leftovers, err := filepath.Glob(filepath.Join(h.out, ".dropwatch-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDispatcher_CopyOverwrites(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 10)
	require.NoError(t, os.WriteFile(filepath.Join(h.out, "f.dat"), []byte("old"), 0644))

	_, err := h.d.Dispatch(context.Background(), src, h.rule(t, "copy"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(h.out, "f.dat"))
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestDispatcher_Move(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 100)

	res, err := h.d.Dispatch(context.Background(), src, h.rule(t, "move"))
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	assert.FileExists(t, res.Destination)
	assert.Contains(t, h.logs.String(), "[MOVE]")
}

func TestDispatcher_MoveAcrossDevices(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 4096)
	h.d.rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}

	res, err := h.d.Dispatch(context.Background(), src, h.rule(t, "move"))
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(res.Destination)
	require.NoError(t, err)
	assert.Len(t, data, 4096)
}

func TestDispatcher_MoveRenameFails(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 10)

	rule, err := rules.New(h.in, "*.dat", filepath.Join(h.out, "missing"), "move")
	require.NoError(t, err)

	_, err = h.d.Dispatch(context.Background(), src, rule)
	assert.Error(t, err)
	assert.FileExists(t, src, "source untouched when rename fails")
}

func TestDispatcher_Delete(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 100)

	_, err := h.d.Dispatch(context.Background(), src, h.rule(t, "delete"))
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	entries, err := os.ReadDir(h.out)
	require.NoError(t, err)
	assert.Empty(t, entries, "delete never writes to target")
	assert.Contains(t, h.logs.String(), "[DELETE]")
}

func TestDispatcher_Unsupported(t *testing.T) {
	h := setupTest(t)
	src := h.drop(t, "f.dat", 100)

	res, err := h.d.Dispatch(context.Background(), src, h.rule(t, "unzip"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Destination)

	assert.FileExists(t, src)
	assert.Contains(t, h.logs.String(), "[SKIP] unsupported action")
	assert.Contains(t, h.logs.String(), "unzip")
}

func TestDispatcher_Errors(t *testing.T) {
	h := setupTest(t)
	missing := filepath.Join(h.in, "gone.dat")

	tests := []struct {
		name   string
		action string
	}{
		{name: "Copy missing source", action: "copy"},
		{name: "Move missing source", action: "move"},
		{name: "Delete missing source", action: "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.d.Dispatch(context.Background(), missing, h.rule(t, tt.action))
			assert.ErrorIs(t, err, fs.ErrNotExist)
		})
	}

	_, err := h.d.Dispatch(context.Background(), missing, nil)
	assert.ErrorIs(t, err, ErrNilRule)
}

func TestVerifyCopy(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0644))
	assert.NoError(t, verifyCopy(a, b))

	require.NoError(t, os.WriteFile(b, []byte("diff"), 0644))
	assert.ErrorIs(t, verifyCopy(a, b), ErrVerifyFailed)
}

func TestCopyFile_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := copyFile(ctx, src, dst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dst)
}

func TestCtxReader(t *testing.T) {
	r := &ctxReader{ctx: context.Background(), r: bytes.NewReader([]byte("abc"))}
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
