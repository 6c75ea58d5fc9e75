package types

import "sync/atomic"

// ListenerInfo holds the runtime listening info of the acceptor.
type ListenerInfo struct {
	Network string
	Address string
	Port    int
}

// ConnState 表示一个客户端连接在其生命周期中的阶段。
// 状态只能向前推进: ACCEPTED → DISPATCHED → RESPONDING → CLOSED。
type ConnState int32

const (
	StateAccepted ConnState = iota
	StateDispatched
	StateResponding
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateAccepted:
		return "ACCEPTED"
	case StateDispatched:
		return "DISPATCHED"
	case StateResponding:
		return "RESPONDING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Metrics holds the runtime counters of the acceptor.
type Metrics struct {
	Accepted     atomic.Int64
	AcceptErrors atomic.Int64
	WriteErrors  atomic.Int64
	BytesSent    atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Accepted     int64  `json:"accepted"`
	AcceptErrors int64  `json:"acceptErrors"`
	WriteErrors  int64  `json:"writeErrors"`
	BytesSent    uint64 `json:"bytesSent"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Accepted:     m.Accepted.Load(),
		AcceptErrors: m.AcceptErrors.Load(),
		WriteErrors:  m.WriteErrors.Load(),
		BytesSent:    m.BytesSent.Load(),
	}
}
