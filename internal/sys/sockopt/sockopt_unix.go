//go:build unix

package sockopt

import (
	"fmt"
	"net"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

const (
	AFInet  = unix.AF_INET
	AFInet6 = unix.AF_INET6
)

// Socket creates a blocking, close-on-exec stream socket of the given family.
func Socket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket(%s): %w", FamilyName(family), err)
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

// SetReuseAddr enables SO_REUSEADDR so a restarted server can bind while
// old connections linger in TIME_WAIT.
func SetReuseAddr(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	return nil
}

// SetV6Only toggles IPV6_V6ONLY. Off means the socket also accepts IPv4 peers.
func SetV6Only(fd int, only bool) error {
	v := 0
	if only {
		v = 1
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v); err != nil {
		return fmt.Errorf("failed to set IPV6_V6ONLY=%d: %w", v, err)
	}
	return nil
}

func Bind(fd, family int, addr netip.AddrPort) error {
	sa, err := sockaddr(family, addr)
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	return nil
}

func Listen(fd, backlog int) error {
	if err := unix.Listen(fd, backlog); err != nil {
		return fmt.Errorf("listen(backlog=%d): %w", backlog, err)
	}
	return nil
}

func Close(fd int) error {
	return unix.Close(fd)
}

// FileListener wraps a listening fd into a net.Listener. The listener owns a
// duplicate of fd; the original descriptor is closed before returning.
func FileListener(fd int, name string) (net.Listener, error) {
	f := os.NewFile(uintptr(fd), name)
	defer f.Close()
	l, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap listening socket: %w", err)
	}
	return l, nil
}

func sockaddr(family int, addr netip.AddrPort) (unix.Sockaddr, error) {
	ip := addr.Addr()
	switch family {
	case unix.AF_INET:
		ip = ip.Unmap()
		if !ip.Is4() {
			return nil, fmt.Errorf("address %s is not IPv4", ip)
		}
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	case unix.AF_INET6:
		sa := &unix.SockaddrInet6{Port: int(addr.Port()), Addr: ip.As16()}
		if zone := ip.Zone(); zone != "" {
			ifi, err := net.InterfaceByName(zone)
			if err != nil {
				return nil, fmt.Errorf("unknown zone %q: %w", zone, err)
			}
			sa.ZoneId = uint32(ifi.Index)
		}
		return sa, nil
	default:
		return nil, fmt.Errorf("unexpected address family %d", family)
	}
}

func FamilyName(family int) string {
	switch family {
	case unix.AF_INET:
		return "AF_INET"
	case unix.AF_INET6:
		return "AF_INET6"
	default:
		return fmt.Sprintf("AF(%d)", family)
	}
}
