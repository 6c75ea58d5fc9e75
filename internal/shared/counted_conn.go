package shared

import (
	"net"
	"sync/atomic"
)

// CountedConn 是一个 net.Conn 的包装器，用于原子地统计写出的字节数。
type CountedConn struct {
	net.Conn
	sent *atomic.Uint64
}

// NewCountedConn 创建一个新的 CountedConn 实例。
func NewCountedConn(conn net.Conn, sent *atomic.Uint64) *CountedConn {
	return &CountedConn{
		Conn: conn,
		sent: sent,
	}
}

// Write 将数据写入底层连接，并增加发送计数。
func (c *CountedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.sent.Add(uint64(n))
	}
	return n, err
}
