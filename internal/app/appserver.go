package app

import (
	"context"
	"sync"
	"time"

	"greeter/internal/core/acceptor"
	"greeter/internal/shared/logger"
	"greeter/internal/shared/types"
)

const statsInterval = 30 * time.Second

// AppServer is the application's main struct.
type AppServer struct {
	cfg      *types.Config
	acceptor *acceptor.Acceptor

	stopCh    chan struct{}
	waitGroup sync.WaitGroup
	stopOnce  sync.Once
}

func New(cfg *types.Config) *AppServer {
	return &AppServer{
		cfg:      cfg,
		acceptor: acceptor.New(cfg.ServerConf),
		stopCh:   make(chan struct{}),
	}
}

// Start binds the listening endpoint and launches the accept loop in the
// background. Every error it returns is a fatal setup error. A second call
// fails with acceptor.ErrAlreadyListening.
func (s *AppServer) Start(ctx context.Context) (int, error) {
	port, err := s.acceptor.InitializeListener(ctx)
	if err != nil {
		return 0, err
	}

	s.waitGroup.Add(2)
	go func() {
		defer s.waitGroup.Done()
		s.acceptor.Serve()
	}()
	go s.statsLoop()
	return port, nil
}

// Run is the server's entry point. It only returns on a setup error or
// after Stop.
func (s *AppServer) Run(ctx context.Context) error {
	logger.Info().Int("port", s.cfg.Port).Str("network", s.cfg.Network).Msg("Starting greeter...")
	if _, err := s.Start(ctx); err != nil {
		return err
	}
	s.Wait()
	return nil
}

func (s *AppServer) Wait() {
	s.waitGroup.Wait()
}

// Stop closes the listener and waits for in-flight workers.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.acceptor.Close()
	})
}

// Port returns the bound port, or 0 before Start.
func (s *AppServer) Port() int {
	if info := s.acceptor.GetListenerInfo(); info != nil {
		return info.Port
	}
	return 0
}

func (s *AppServer) Metrics() types.MetricsSnapshot {
	return s.acceptor.Metrics()
}

// statsLoop 定期输出连接统计
func (s *AppServer) statsLoop() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var last types.MetricsSnapshot
	for {
		select {
		case <-ticker.C:
			m := s.acceptor.Metrics()
			if m == last {
				continue
			}
			logger.Debug().
				Int64("accepted", m.Accepted).
				Int64("accept_errors", m.AcceptErrors).
				Int64("write_errors", m.WriteErrors).
				Uint64("bytes_sent", m.BytesSent).
				Int64("active_workers", s.acceptor.ActiveWorkers()).
				Msg("Stats")
			last = m
		case <-s.stopCh:
			return
		}
	}
}
