package acceptor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"greeter/internal/core/responder"
	"greeter/internal/core/supervisor"
	"greeter/internal/shared/logger"
	"greeter/internal/shared/types"
	"greeter/internal/sys/sockopt"
)

var (
	ErrResolve          = errors.New("address resolution failed")
	ErrNoBindCandidate  = errors.New("failed to bind")
	ErrListen           = errors.New("listen failed")
	ErrSockopt          = errors.New("socket option failed")
	ErrAlreadyListening = errors.New("listener already initialized")
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Acceptor owns the listening endpoint and hands every accepted connection
// to a supervised responder worker.
type Acceptor struct {
	cfg      types.ServerConf
	resolver *net.Resolver

	mu           sync.Mutex
	listener     net.Listener
	listenerInfo *types.ListenerInfo

	supervisor *supervisor.Supervisor
	responder  *responder.Responder
	metrics    *types.Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	waitGroup sync.WaitGroup
}

func New(cfg types.ServerConf) *Acceptor {
	metrics := new(types.Metrics)
	return &Acceptor{
		cfg:        cfg,
		resolver:   net.DefaultResolver,
		supervisor: supervisor.New(),
		responder:  responder.New(cfg.Payload, cfg.WriteDeadline(), metrics),
		metrics:    metrics,
	}
}

// InitializeListener resolves, binds and listens, but does not block.
// It returns the port actually bound, which differs from the configured one
// when that is 0.
func (a *Acceptor) InitializeListener(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return 0, ErrAlreadyListening
	}

	candidates, err := Resolve(ctx, a.resolver, a.cfg.Host, a.cfg.Port, a.cfg.Network)
	if err != nil {
		return 0, err
	}

	listener, chosen, err := bindFirst(candidates, a.cfg.Backlog)
	if err != nil {
		return 0, err
	}
	a.listener = listener

	tcpAddr := listener.Addr().(*net.TCPAddr)
	a.listenerInfo = &types.ListenerInfo{
		Network: a.cfg.Network,
		Address: tcpAddr.IP.String(),
		Port:    tcpAddr.Port,
	}
	logger.Info().
		Str("listen_addr", listener.Addr().String()).
		Str("candidate", chosen.String()).
		Int("backlog", a.cfg.Backlog).
		Msg("server: waiting for connections...")

	return tcpAddr.Port, nil
}

// bindFirst walks candidates in order and returns a listener for the first
// one that can be created and bound. A socket option failure aborts the walk.
func bindFirst(candidates []Candidate, backlog int) (net.Listener, Candidate, error) {
	var lastErr error
	for _, c := range candidates {
		fd, err := sockopt.Socket(c.Family)
		if err != nil {
			logger.Warn().Err(err).Str("candidate", c.String()).Msg("server: socket")
			lastErr = err
			continue
		}

		if err := sockopt.SetReuseAddr(fd); err != nil {
			sockopt.Close(fd)
			return nil, c, fmt.Errorf("%w: %w", ErrSockopt, err)
		}
		if c.Family == sockopt.AFInet6 {
			if err := sockopt.SetV6Only(fd, c.V6Only); err != nil {
				sockopt.Close(fd)
				return nil, c, fmt.Errorf("%w: %w", ErrSockopt, err)
			}
		}

		if err := sockopt.Bind(fd, c.Family, c.Addr); err != nil {
			sockopt.Close(fd)
			logger.Warn().Err(err).Str("candidate", c.String()).Msg("server: bind")
			lastErr = err
			continue
		}

		if err := sockopt.Listen(fd, backlog); err != nil {
			sockopt.Close(fd)
			return nil, c, fmt.Errorf("%w: %w", ErrListen, err)
		}
		listener, err := sockopt.FileListener(fd, "listener:"+c.Addr.String())
		if err != nil {
			return nil, c, fmt.Errorf("%w: %w", ErrListen, err)
		}
		return listener, c, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no candidates")
	}
	return nil, Candidate{}, fmt.Errorf("%w: %w", ErrNoBindCandidate, lastErr)
}

// Serve runs the blocking accept loop. It must be called after
// InitializeListener and returns once the listener is closed.
func (a *Acceptor) Serve() {
	a.mu.Lock()
	listener := a.listener
	if listener == nil {
		a.mu.Unlock()
		logger.Error().Msg("Acceptor.Serve() called before InitializeListener()")
		return
	}
	// Close sets closed before taking mu, so either it sees this Add or we see closed.
	if a.closed.Load() {
		a.mu.Unlock()
		return
	}
	a.waitGroup.Add(1)
	a.mu.Unlock()
	a.acceptLoop(listener)
}

func (a *Acceptor) acceptLoop(listener net.Listener) {
	defer a.waitGroup.Done()
	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || a.closed.Load() {
				logger.Info().Msg("Listener is closing.")
				return
			}
			a.metrics.AcceptErrors.Add(1)
			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			logger.Warn().Err(err).Int64("retry_in_ms", backoff.Milliseconds()).Msg("accept failed")
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		a.dispatch(conn)
	}
}

// dispatch hands conn to a worker. After it returns the loop holds no
// reference to conn.
func (a *Acceptor) dispatch(conn net.Conn) {
	a.metrics.Accepted.Add(1)
	sess := types.NewSession(uuid.NewString(), conn.RemoteAddr())
	logger.Info().Str("trace_id", sess.ID).Str("peer", sess.Peer).Msg("server: got connection")

	if err := sess.Advance(types.StateDispatched); err != nil {
		logger.Error().Err(err).Msg("dispatch: state error")
		conn.Close()
		return
	}
	if err := a.supervisor.Go(sess.ID, func() { a.responder.Handle(sess, conn) }); err != nil {
		logger.Warn().Err(err).Str("trace_id", sess.ID).Msg("dispatch: worker rejected")
		conn.Close()
	}
}

// GetListenerInfo returns nil until InitializeListener has succeeded.
func (a *Acceptor) GetListenerInfo() *types.ListenerInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenerInfo
}

func (a *Acceptor) Metrics() types.MetricsSnapshot {
	return a.metrics.Snapshot()
}

// ActiveWorkers is the number of dispatched workers not yet reaped.
func (a *Acceptor) ActiveWorkers() int64 {
	return a.supervisor.Active()
}

// Close stops accepting, then waits for in-flight workers.
func (a *Acceptor) Close() {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		a.mu.Lock()
		if a.listener != nil {
			a.listener.Close()
		}
		a.mu.Unlock()
		a.waitGroup.Wait()
		a.supervisor.Close()
		logger.Info().Msg("Acceptor has been shut down")
	})
}
