package types

import (
	"fmt"
	"net"
	"sync/atomic"
)

// Session 记录一个已接受连接的元数据和状态。
// Session 不持有连接本身，连接的所有权属于处理它的 worker。
type Session struct {
	ID    string
	Peer  string
	state atomic.Int32
}

func NewSession(id string, peer net.Addr) *Session {
	return &Session{ID: id, Peer: PeerIP(peer)}
}

// State returns the current lifecycle state.
func (s *Session) State() ConnState {
	return ConnState(s.state.Load())
}

// Advance moves the session to next. Only the immediate successor of the
// current state is accepted.
func (s *Session) Advance(next ConnState) error {
	cur := ConnState(s.state.Load())
	if next != cur+1 || next > StateClosed {
		return fmt.Errorf("session %s: invalid transition %s -> %s", s.ID, cur, next)
	}
	if !s.state.CompareAndSwap(int32(cur), int32(next)) {
		return fmt.Errorf("session %s: concurrent transition from %s", s.ID, cur)
	}
	return nil
}

// PeerIP renders the numeric address of a peer for either address family.
// IPv4-mapped IPv6 addresses are printed in dotted form.
func PeerIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	switch a := addr.(type) {
	case *net.TCPAddr:
		if ip4 := a.IP.To4(); ip4 != nil {
			return ip4.String()
		}
		return a.IP.String()
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return addr.String()
		}
		return host
	}
}
