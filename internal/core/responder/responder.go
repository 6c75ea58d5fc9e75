package responder

import (
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"greeter/internal/shared"
	"greeter/internal/shared/types"
)

// Responder writes the fixed payload to a connection and closes it.
// It never reads from the peer.
type Responder struct {
	payload      []byte
	writeTimeout time.Duration
	metrics      *types.Metrics
}

func New(payload string, writeTimeout time.Duration, metrics *types.Metrics) *Responder {
	if metrics == nil {
		metrics = new(types.Metrics)
	}
	return &Responder{
		payload:      []byte(payload),
		writeTimeout: writeTimeout,
		metrics:      metrics,
	}
}

// Handle takes ownership of conn. It performs exactly one write and closes
// conn on every path.
func (r *Responder) Handle(sess *types.Session, conn net.Conn) {
	l := log.With().Str("trace_id", sess.ID).Str("peer", sess.Peer).Logger()

	defer func() {
		if err := conn.Close(); err != nil {
			l.Debug().Err(err).Msg("Responder: close failed")
		}
		if err := sess.Advance(types.StateClosed); err != nil {
			l.Error().Err(err).Msg("Responder: state error")
		}
	}()

	if err := sess.Advance(types.StateResponding); err != nil {
		l.Error().Err(err).Msg("Responder: state error")
		return
	}

	if r.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(r.writeTimeout)); err != nil {
			l.Warn().Err(err).Msg("Responder: failed to set write deadline")
		}
	}

	out := shared.NewCountedConn(conn, &r.metrics.BytesSent)
	if _, err := out.Write(r.payload); err != nil {
		r.metrics.WriteErrors.Add(1)
		l.Warn().Err(err).Msg("Responder: send failed")
		return
	}
	l.Debug().Int("bytes", len(r.payload)).Msg("Responder: payload sent")
}
