package stability

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Checker decides whether a file has finished being written by comparing
// its size across one sampling interval.
type Checker struct {
	Interval time.Duration
}

func NewChecker(interval time.Duration) *Checker {
	return &Checker{
		Interval: interval,
	}
}

// Check samples the size of path twice, Interval apart. It blocks the
// calling goroutine for the whole interval unless ctx is cancelled first.
// Any stat failure yields false along with the error.
func (c *Checker) Check(ctx context.Context, path string) (bool, error) {
	before, err := c.size(path)
	if err != nil {
		return false, err
	}

	timer := time.NewTimer(c.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	after, err := c.size(path)
	if err != nil {
		return false, err
	}

	if before != after {
		return false, nil
	}
	return true, nil
}

func (c *Checker) size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return info.Size(), nil
}
