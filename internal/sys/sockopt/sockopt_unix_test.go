//go:build unix

package sockopt

import (
	"io"
	"net"
	"net/netip"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSocketBindListen(t *testing.T) {
	fd, err := Socket(AFInet)
	if err != nil {
		t.Fatalf("Socket() returned an error: %v", err)
	}
	if err := SetReuseAddr(fd); err != nil {
		Close(fd)
		t.Fatalf("SetReuseAddr() returned an error: %v", err)
	}
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR)
	if err != nil || v == 0 {
		Close(fd)
		t.Fatalf("Expected SO_REUSEADDR to be enabled, got %d (err=%v)", v, err)
	}
	if err := Bind(fd, AFInet, netip.MustParseAddrPort("127.0.0.1:0")); err != nil {
		Close(fd)
		t.Fatalf("Bind() returned an error: %v", err)
	}
	if err := Listen(fd, 10); err != nil {
		Close(fd)
		t.Fatalf("Listen() returned an error: %v", err)
	}

	l, err := FileListener(fd, "test")
	if err != nil {
		t.Fatalf("FileListener() returned an error: %v", err)
	}
	defer l.Close()

	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("ok"))
		c.Close()
	}()

	conn, err := net.Dial("tcp4", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial() returned an error: %v", err)
	}
	defer conn.Close()
	got, err := io.ReadAll(conn)
	if err != nil || string(got) != "ok" {
		t.Errorf("Expected 'ok', got %q (err=%v)", got, err)
	}
}

func TestBind_FamilyMismatch(t *testing.T) {
	fd, err := Socket(AFInet)
	if err != nil {
		t.Fatalf("Socket() returned an error: %v", err)
	}
	defer Close(fd)

	if err := Bind(fd, AFInet, netip.MustParseAddrPort("[2001:db8::1]:80")); err == nil {
		t.Error("Expected an error binding an IPv6 address on an AF_INET socket")
	}
}

func TestFamilyName(t *testing.T) {
	if got := FamilyName(AFInet); got != "AF_INET" {
		t.Errorf("Expected AF_INET, got %s", got)
	}
	if got := FamilyName(AFInet6); got != "AF_INET6" {
		t.Errorf("Expected AF_INET6, got %s", got)
	}
}
