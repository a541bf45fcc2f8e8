package net

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/config"
)

// Server accepts host connections and creates Sessions. New sessions are
// handed to the game loop over a channel.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	cfg      config.NetworkConfig
	init     []byte
	log      *zap.Logger
	closeCh  chan struct{}
}

// NewServer listens on cfg.BindAddress. init is the INIT frame every new
// session receives before anything else.
func NewServer(cfg config.NetworkConfig, init []byte, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		newConns: make(chan *Session, 16),
		cfg:      cfg,
		init:     init,
		log:      log,
		closeCh:  make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, starts
// sessions, and pushes them onto the newConns channel.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.cfg.InQueueSize, s.cfg.OutQueueSize, s.cfg.WriteTimeout, s.log)
		sess.Start(s.init)

		s.log.Info("host connected", zap.Uint64("session", id), zap.String("addr", sess.Addr))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("session queue full, refusing host")
			sess.Close()
		}
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
