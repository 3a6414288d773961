package simulator

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Mode selects how the simulator answers commands.
type Mode int

const (
	// ModeDobot answers "ErrorID,{},Command;" like a real controller.
	ModeDobot Mode = iota

	// ModeEcho answers with exactly the bytes received for the line,
	// delimiter included.
	ModeEcho
)

// Command is one line received by the simulator.
type Command struct {
	Channel string // "dashboard" or "motion"
	Text    string // line without the delimiter
}

// Option configures a Server.
type Option func(*Server)

// WithMode sets the reply mode. The default is ModeDobot.
func WithMode(m Mode) Option {
	return func(s *Server) { s.mode = m }
}

// WithErrorReply makes every command starting with prefix answer with
// errorID instead of 0. When several prefixes match, the longest wins; for
// the same prefix the last registration wins. Only used in ModeDobot.
func WithErrorReply(prefix string, errorID int) Option {
	return func(s *Server) {
		s.errorReplies = append(s.errorReplies, errorReply{prefix: prefix, id: errorID})
	}
}

type errorReply struct {
	prefix string
	id     int
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is an in-process stand-in for a robot controller. It listens on a
// dashboard port and a motion port and answers each newline-terminated
// command with one reply.
//
// Server is safe for concurrent use; every accepted connection is served by
// its own goroutine.
type Server struct {
	mode         Mode
	errorReplies []errorReply
	logger       *zap.SugaredLogger

	mu        sync.Mutex
	commands  []Command
	accepted  int
	active    int
	conns     map[net.Conn]struct{}
	listeners []net.Listener
	closed    bool

	wg sync.WaitGroup
}

// New returns a stopped simulator.
func New(opts ...Option) *Server {
	s := &Server{
		logger: zap.NewNop().Sugar(),
		conns:  make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on host at the given ports and begins serving. A port of 0
// picks a free port; use DashboardPort and MotionPort to find out which.
func (s *Server) Start(host string, dashboardPort, motionPort int) error {
	dash, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(dashboardPort)))
	if err != nil {
		return errors.Wrap(err, "failed to listen for dashboard channel")
	}
	motion, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(motionPort)))
	if err != nil {
		return multierr.Combine(errors.Wrap(err, "failed to listen for motion channel"), dash.Close())
	}

	s.mu.Lock()
	s.listeners = []net.Listener{dash, motion}
	s.mu.Unlock()

	s.wg.Add(2)
	go s.serve("dashboard", dash)
	go s.serve("motion", motion)

	s.logger.Infow("simulator listening", "dashboard", dash.Addr().String(), "motion", motion.Addr().String())
	return nil
}

// DashboardPort returns the port the dashboard listener is bound to, or 0
// before Start.
func (s *Server) DashboardPort() int {
	return s.port(0)
}

// MotionPort returns the port the motion listener is bound to, or 0 before
// Start.
func (s *Server) MotionPort() int {
	return s.port(1)
}

func (s *Server) port(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listeners) <= i {
		return 0
	}
	return s.listeners[i].Addr().(*net.TCPAddr).Port
}

// Commands returns every command received so far, in arrival order.
func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Accepted returns the number of connections accepted since Start.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Active returns the number of connections currently open.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// WaitIdle blocks until no connection is open or ctx is done.
func (s *Server) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the listeners, drops open connections and waits for every
// serving goroutine to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var err error
	for _, ln := range s.listeners {
		err = multierr.Append(err, ln.Close())
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) serve(channel string, ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Warnw("accept failed", "channel", channel, "error", err)
			}
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.accepted++
		s.active++
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(channel, conn)
	}
}

func (s *Server) handle(channel string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.active--
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		s.mu.Lock()
		s.commands = append(s.commands, Command{Channel: channel, Text: line})
		s.mu.Unlock()

		reply := s.reply(line)
		s.logger.Debugw("simulator exchange", "channel", channel, "command", line, "reply", strings.TrimSpace(reply))
		if _, err := conn.Write([]byte(reply)); err != nil {
			s.logger.Warnw("write failed", "channel", channel, "error", err)
			return
		}
	}
}

func (s *Server) reply(line string) string {
	if s.mode == ModeEcho {
		return line + "\n"
	}
	id, matched := 0, -1
	for _, er := range s.errorReplies {
		if strings.HasPrefix(line, er.prefix) && len(er.prefix) >= matched {
			id, matched = er.id, len(er.prefix)
		}
	}
	return fmt.Sprintf("%d,{},%s;\n", id, line)
}
