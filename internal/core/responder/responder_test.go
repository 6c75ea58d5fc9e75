package responder

import (
	"io"
	"net"
	"testing"
	"time"

	"greeter/internal/shared/types"
)

func dispatchedSession(t *testing.T, id string) *types.Session {
	t.Helper()
	sess := types.NewSession(id, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000})
	if err := sess.Advance(types.StateDispatched); err != nil {
		t.Fatalf("Advance(DISPATCHED) returned an error: %v", err)
	}
	return sess
}

func TestHandle_WritesPayloadAndCloses(t *testing.T) {
	server, client := net.Pipe()
	metrics := new(types.Metrics)
	r := New("Hello, world!", time.Second, metrics)
	sess := dispatchedSession(t, "s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Handle(sess, server)
	}()

	got, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("ReadAll() returned an error: %v", err)
	}
	<-done

	if string(got) != "Hello, world!" {
		t.Errorf("Expected payload 'Hello, world!', got %q", got)
	}
	if sess.State() != types.StateClosed {
		t.Errorf("Expected session state CLOSED, got %s", sess.State())
	}
	if metrics.BytesSent.Load() != 13 {
		t.Errorf("Expected 13 bytes sent, got %d", metrics.BytesSent.Load())
	}
	if metrics.WriteErrors.Load() != 0 {
		t.Errorf("Expected no write errors, got %d", metrics.WriteErrors.Load())
	}
}

func TestHandle_WriteFailureStillCloses(t *testing.T) {
	server, client := net.Pipe()
	client.Close()

	metrics := new(types.Metrics)
	r := New("Hello, world!", 0, metrics)
	sess := dispatchedSession(t, "s2")

	r.Handle(sess, server)

	if metrics.WriteErrors.Load() != 1 {
		t.Errorf("Expected 1 write error, got %d", metrics.WriteErrors.Load())
	}
	if sess.State() != types.StateClosed {
		t.Errorf("Expected session state CLOSED, got %s", sess.State())
	}
	if _, err := server.Write([]byte("x")); err == nil {
		t.Error("Expected server side of the pipe to be closed")
	}
}

func TestHandle_WriteDeadline(t *testing.T) {
	// net.Pipe has no buffering, so an unread write blocks until the deadline.
	server, client := net.Pipe()
	defer client.Close()

	metrics := new(types.Metrics)
	r := New("Hello, world!", 50*time.Millisecond, metrics)
	sess := dispatchedSession(t, "s3")

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Handle(sess, server)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle() did not return after the write deadline")
	}
	if metrics.WriteErrors.Load() != 1 {
		t.Errorf("Expected 1 write error, got %d", metrics.WriteErrors.Load())
	}
}
