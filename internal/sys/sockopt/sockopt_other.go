//go:build !unix

package sockopt

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// Raw socket setup is only implemented for unix platforms.
var errUnsupported = errors.ErrUnsupported

const (
	AFInet  = 2
	AFInet6 = 23
)

func Socket(family int) (int, error) { return -1, errUnsupported }
func SetReuseAddr(fd int) error { return errUnsupported }
func SetV6Only(fd int, only bool) error { return errUnsupported }
func Bind(fd, family int, addr netip.AddrPort) error { return errUnsupported }
func Listen(fd, backlog int) error { return errUnsupported }
func Close(fd int) error { return nil }
func FileListener(fd int, name string) (net.Listener, error) { return nil, errUnsupported }

func FamilyName(family int) string {
	return fmt.Sprintf("AF(%d)", family)
}
