package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// TempPrefix starts the name of every in-progress copy written into a
// target directory. Watchers of that directory should ignore it.
const TempPrefix = ".dropwatch-"

// copyFile copies src to dst through a temp file in dst's directory, keeping
// the permission bits and modification time of src. An existing dst is
// replaced.
func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), TempPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", dst, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: in}); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", dst, err)
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chtimes %s: %w", dst, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", dst, err)
	}
	return nil
}

func verifyCopy(src, dst string) error {
	want, err := fileDigest(src)
	if err != nil {
		return err
	}
	got, err := fileDigest(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("%w: %s", ErrVerifyFailed, dst)
	}
	return nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// ctxReader stops a long copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
