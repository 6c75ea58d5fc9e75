// Package probe connects to a greeter and checks what it sends back.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report summarizes a probe run.
type Report struct {
	Attempts   int
	Matched    int64
	Mismatched int64
	Failed     int64
	Elapsed    time.Duration
}

// Fetch dials addr and reads until the server closes the connection.
// A reset after the payload counts as a normal close.
func Fetch(ctx context.Context, network, addr string, timeout time.Duration) ([]byte, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	got, err := io.ReadAll(conn)
	if err != nil && !errors.Is(err, syscall.ECONNRESET) {
		return got, err
	}
	return got, nil
}

// Run opens n concurrent connections and compares each response with expect.
// It returns an error if any connection failed or returned other bytes.
func Run(ctx context.Context, network, addr string, n int, expect []byte, timeout time.Duration) (Report, error) {
	var matched, mismatched, failed atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			got, err := Fetch(ctx, network, addr, timeout)
			switch {
			case err != nil:
				failed.Add(1)
				return fmt.Errorf("connection %d: %w", i, err)
			case !bytes.Equal(got, expect):
				mismatched.Add(1)
				return fmt.Errorf("connection %d: got %q, want %q", i, got, expect)
			}
			matched.Add(1)
			return nil
		})
	}
	err := g.Wait()

	return Report{
		Attempts:   n,
		Matched:    matched.Load(),
		Mismatched: mismatched.Load(),
		Failed:     failed.Load(),
		Elapsed:    time.Since(start),
	}, err
}
