package localserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// DefaultSocketMode restricts the socket to its owner and group.
const DefaultSocketMode os.FileMode = 0660

// maxSocketPath is the portable limit on sun_path.
const maxSocketPath = 104

// Server serves an http.Handler on a Unix domain socket.
type Server struct {
	path       string
	mode       os.FileMode
	httpServer *http.Server
	listener   net.Listener
	running    atomic.Bool
}

// New creates a server for socketPath.
func New(socketPath string, handler http.Handler) *Server {
	return &Server{
		path: socketPath,
		mode: DefaultSocketMode,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen binds the socket. A stale socket file left by a previous process is
// replaced; a socket another process still serves is an error.
func (s *Server) Listen() error {
	if len(s.path) > maxSocketPath {
		return fmt.Errorf("socket path longer than %d bytes: %s", maxSocketPath, s.path)
	}
	if err := removeStale(s.path); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.path, s.mode); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.listener = ln
	return nil
}

// Serve accepts connections until Shutdown. It binds first if Listen has not
// been called.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.running.Store(true)
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) || !s.running.Load() {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, waits for active requests within
// ctx, and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	err := s.httpServer.Shutdown(ctx)
	if s.listener != nil {
		// Serve may never have taken ownership of the listener.
		s.listener.Close()
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}
	return err
}

func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is in use", path)
	}
	return os.Remove(path)
}
