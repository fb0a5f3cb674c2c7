package speeddaemon

import (
	"context"
	"fmt"
	"log/slog"
)

// role is what a client has identified itself as. A client identifies at most once.
type role interface {
	name() string
}

type unidentified struct{}

func (unidentified) name() string { return "unidentified" }

type cameraRole struct {
	Camera
}

func (cameraRole) name() string { return "camera" }

type dispatcherRole struct {
	TicketDispatcher
}

func (dispatcherRole) name() string { return "dispatcher" }

// A session is the protocol state of one client connection. It is only used from the goroutine reading from
// the connection.
type session struct {
	conn *Conn
	role role

	server *Server
	logger *slog.Logger
}

func newSession(s *Server, conn *Conn, logger *slog.Logger) *session {
	s.metrics.Connections.WithLabelValues(unidentified{}.name()).Inc()
	return &session{conn: conn, role: unidentified{}, server: s, logger: logger}
}

// handle applies one message from the client. Any error ends the session.
func (s *session) handle(ctx context.Context, m Message) error {
	switch m := m.(type) {
	case *WantHeartbeatMessage:
		// It is an error for a client to send multiple WantHeartbeat messages on a single connection.
		if s.conn.Heartbeat != nil {
			return ErrMultipleWantHeartbeat
		}
		s.conn.Heartbeat = beginHeartbeat(ctx, s.conn, m.Interval, s.logger, s.server.metrics)
		s.logger.Debug("heartbeat requested", "interval", s.conn.Heartbeat.Interval)
	case *IAmCameraMessage:
		if _, ok := s.role.(unidentified); !ok {
			return ErrAlreadyIdentified
		}
		camera := Camera{Road: m.Road, Mile: m.Mile, Limit: m.Limit}
		s.identify(cameraRole{Camera: camera})
		s.logger.Info("camera connected", "road", camera.Road, "mile", camera.Mile, "limit", camera.Limit)
	case *IAmDispatcherMessage:
		if _, ok := s.role.(unidentified); !ok {
			return ErrAlreadyIdentified
		}
		d := TicketDispatcher{Roads: m.Roads}
		s.identify(dispatcherRole{TicketDispatcher: d})
		s.server.DispatcherHandler.Register(s.conn, d)
		s.logger.Info("dispatcher connected", "roads", d.Roads)
	case *PlateMessage:
		c, ok := s.role.(cameraRole)
		if !ok {
			return fmt.Errorf("%w: %s sent Plate", ErrNotCamera, s.role.name())
		}
		s.logger.Debug("received plate message", "road", c.Road, "mile", c.Mile, "plate", m.Plate, "timestamp", m.Timestamp)
		s.server.CameraHandler.RecordPlate(c.Camera, m)
	default:
		return fmt.Errorf("%w: %s", ErrIllegalMessage, m.Type())
	}
	return nil
}

func (s *session) identify(r role) {
	s.server.metrics.Connections.WithLabelValues(s.role.name()).Dec()
	s.server.metrics.Connections.WithLabelValues(r.name()).Inc()
	s.role = r
}

// close stops the heartbeat and removes the client from the roads it dispatches for.
func (s *session) close() {
	s.conn.Heartbeat.Stop()
	if d, ok := s.role.(dispatcherRole); ok {
		s.server.DispatcherHandler.Deregister(s.conn, d.TicketDispatcher)
		s.logger.Info("dispatcher disconnected", "roads", d.Roads)
	}
	s.server.metrics.Connections.WithLabelValues(s.role.name()).Dec()
}
