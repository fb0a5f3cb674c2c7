// Package speeddaemon implements a server for the Speed Daemon protocol.
package speeddaemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// SpeedLimitEnforcementServer coordinates enforcement of average speed limits on the Freedom Island road network.
//
// Two types of clients are supported: cameras and ticket dispatchers.
// Clients connect over TCP and speak a protocol using a binary format.
//
// When the client does something that the protocol declares "an error", the server must send the
// client an appropriate Error message and immediately disconnect that client.
type SpeedLimitEnforcementServer struct {
	ConnectionID atomic.Uint64

	CameraHandler     *CameraHandler
	DispatcherHandler *DispatcherHandler

	writeTimeout time.Duration
	logger       *slog.Logger
	metrics      *Metrics
}

// Server is shorthand for SpeedLimitEnforcementServer.
type Server = SpeedLimitEnforcementServer

// Cfg configures a Server.
type Cfg func(*Server) error

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Cfg {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the collectors updated by the server.
func WithMetrics(metrics *Metrics) Cfg {
	return func(s *Server) error {
		s.metrics = metrics
		return nil
	}
}

// DefaultWriteTimeout bounds writes to a client unless WithWriteTimeout says otherwise.
const DefaultWriteTimeout = 10 * time.Second

// WithWriteTimeout bounds every write to a client. Zero means no timeout.
func WithWriteTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		if d < 0 {
			return fmt.Errorf("negative write timeout: %s", d)
		}
		s.writeTimeout = d
		return nil
	}
}

// NewServer creates a Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	s := &Server{logger: slog.Default(), writeTimeout: DefaultWriteTimeout}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			return nil, fmt.Errorf("apply server cfg failed: %w", err)
		}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.DispatcherHandler = NewDispatcherHandler(s.logger, s.metrics)
	s.CameraHandler = NewCameraHandler(s.DispatcherHandler, s.logger, s.metrics)
	return s, nil
}

// Serve accepts connections on l and handles each in its own goroutine until ctx is done.
// It closes l, and waits for the open connections to be closed before returning.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		if err := l.Close(); err != nil {
			s.logger.Error("error closing listener", "err", err)
		}
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	s.logger.Info("listening", "addr", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("connection error", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Handle(ctx, conn); err != nil {
				s.logger.Info("connection closed with error", "remote_addr", conn.RemoteAddr(), "err", err)
			}
		}()
	}
}

// Handle handles a client connection until the client disconnects, the client commits an error, or ctx is done.
// It closes conn before returning.
func (s *Server) Handle(ctx context.Context, conn net.Conn) error {
	client := &Conn{Conn: conn, ID: s.ConnectionID.Add(1), WriteTimeout: s.writeTimeout}
	logger := s.logger.With("connection", client.ID, "remote_addr", conn.RemoteAddr())
	logger.Info("client connected")
	defer closeOrLog(client, logger)

	stop := context.AfterFunc(ctx, func() { closeOrLog(client, logger) })
	defer stop()

	sess := newSession(s, client, logger)
	defer sess.close()

	for m, err := range NewDecoder(client).Messages() {
		if err == nil {
			s.metrics.MessagesReceived.WithLabelValues(m.Type().String()).Inc()
			err = sess.handle(ctx, m)
		}
		if err != nil {
			return s.fail(client, logger, err)
		}
	}
	logger.Info("client disconnected")
	return nil
}

// fail reports err to the client if it is a protocol error. The Error message is best-effort: the connection is
// closed regardless of whether it was written.
func (s *Server) fail(client *Conn, logger *slog.Logger, err error) error {
	s.metrics.Errors.WithLabelValues(errorKind(err)).Inc()
	if !reportable(err) {
		return fmt.Errorf("read error: %w", err)
	}

	logger.Warn("disconnecting client", "err", err)
	if werr := sendError(client, err); werr != nil {
		logger.Debug("error sending Error message", "err", werr)
	}
	return err
}

// sendError sends an ErrorMessage describing err to the client.
func sendError(client *Conn, err error) error {
	return client.WriteMessage(&ErrorMessage{Msg: err.Error()})
}

func closeOrLog(conn net.Conn, logger *slog.Logger) {
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Error("error closing connection", "err", err)
	}
}
