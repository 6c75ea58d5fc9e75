package acceptor

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"greeter/internal/sys/sockopt"
)

// Candidate is one address/family tuple the acceptor may try to bind.
type Candidate struct {
	Family int
	Addr   netip.AddrPort
	V6Only bool
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s", sockopt.FamilyName(c.Family), c.Addr)
}

// Resolve builds the ordered list of bind candidates for a passive stream socket.
//
// An empty host means every local interface. For network "tcp" the IPv6
// wildcard is tried first with IPV6_V6ONLY off, so a single socket serves both
// families; the IPv4 wildcard is the fallback for hosts without IPv6.
// A named host is looked up with r and filtered by network, keeping the
// resolver's order.
func Resolve(ctx context.Context, r *net.Resolver, host string, port int, network string) ([]Candidate, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrResolve, port)
	}
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("%w: unsupported network %q", ErrResolve, network)
	}
	p := uint16(port)

	if host == "" {
		v4 := Candidate{Family: sockopt.AFInet, Addr: netip.AddrPortFrom(netip.IPv4Unspecified(), p)}
		v6 := Candidate{Family: sockopt.AFInet6, Addr: netip.AddrPortFrom(netip.IPv6Unspecified(), p)}
		switch network {
		case "tcp4":
			return []Candidate{v4}, nil
		case "tcp6":
			v6.V6Only = true
			return []Candidate{v6}, nil
		default:
			return []Candidate{v6, v4}, nil
		}
	}

	var addrs []netip.Addr
	if ip, err := netip.ParseAddr(host); err == nil {
		addrs = []netip.Addr{ip}
	} else {
		if r == nil {
			r = net.DefaultResolver
		}
		addrs, err = r.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResolve, host, err)
		}
	}

	var out []Candidate
	for _, ip := range addrs {
		is4 := ip.Is4() || ip.Is4In6()
		switch {
		case is4 && network != "tcp6":
			out = append(out, Candidate{Family: sockopt.AFInet, Addr: netip.AddrPortFrom(ip.Unmap(), p)})
		case !is4 && network != "tcp4":
			out = append(out, Candidate{Family: sockopt.AFInet6, Addr: netip.AddrPortFrom(ip, p), V6Only: true})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s address for host %q", ErrResolve, network, host)
	}
	return out, nil
}
