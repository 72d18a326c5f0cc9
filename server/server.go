// Package server implements the XBDM TCP listener: it accepts
// connections on port 730 and spawns one internal/session.Session per
// connection, each on its own goroutine, independent of the others.
package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/GoobyCorp/xbdm-go/internal/config"
	"github.com/GoobyCorp/xbdm-go/internal/logging"
	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
	"github.com/GoobyCorp/xbdm-go/internal/session"
	"github.com/GoobyCorp/xbdm-go/internal/stats"
)

// DefaultAddr is the conventional XBDM listen address.
const DefaultAddr = ":730"

// Server accepts XBDM connections and drives each one through its own
// session state machine.
type Server struct {
	Addr       string
	Filesystem sandbox.Resolver
	Config     config.Provider
	Registry   *session.Registry
	Logger     logging.Logger
	Stats      *stats.Hub

	listener net.Listener
}

// New constructs a Server. fs and cfg are the collaborators every
// session will be given; Registry is set to session.DefaultRegistry()
// and is passed to sessions as is, so it must not be set to nil.
func New(addr string, fs sandbox.Resolver, cfg config.Provider) *Server {
	return &Server{
		Addr:       addr,
		Filesystem: fs,
		Config:     cfg,
		Registry:   session.DefaultRegistry(),
		Logger:     logging.Default(),
	}
}

// ListenAndServe binds Addr and serves connections until Close is
// called or Accept returns a permanent error.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("xbdm: listen failed: %w", err)
	}
	return s.Serve(ln)
}

// Serve runs the accept loop against an already-bound listener,
// allowing callers (and tests) to supply their own, e.g. one bound to
// an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln
	s.Logger.Info("xbdm server listening", logging.Field{Key: "addr", Value: ln.Addr().String()})
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("xbdm: accept failed: %w", err)
		}
		go s.handle(conn)
	}
}

// Close stops the accept loop; sessions already in flight run to
// completion on their own goroutines.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handle(conn net.Conn) {
	start := time.Now()
	remote := conn.RemoteAddr().String()
	log := s.Logger.With(logging.Field{Key: "remote", Value: remote})
	log.Info("session opened")

	if s.Stats != nil {
		s.Stats.SessionOpened()
		defer s.Stats.SessionClosed()
	}

	sess := session.New(conn, s.Registry, s.Filesystem, s.Config, log)
	sess.SetStats(s.Stats)
	sess.Serve()

	log.Info("session closed", logging.Field{Key: "duration", Value: time.Since(start)})
}
