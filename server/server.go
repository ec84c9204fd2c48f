package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blackjackd/deck"
	"blackjackd/protocol"
)

const acceptPoll = 1 * time.Second

type ServerConfig struct {
	ListenAddr    string // TCP address, ":0" picks an ephemeral port
	APIListenAddr string // stats API address, empty disables it
	Name          string // display name advertised in offers
	BroadcastAddr string // destination for offer datagrams
	MaxWorkers    int    // fixed number of session workers
	QueueSize     int    // pending-connection queue capacity
	ClientTimeout time.Duration
	DealDelay     time.Duration // presentation pacing between dealt cards
	RoundDelay    time.Duration // pacing between rounds of one session
}

// Server owns the accept loop and the worker pool. Each accepted
// connection becomes one session run by one worker; sessions share
// nothing but the stats counters.
type Server struct {
	ServerConfig
	listener *net.TCPListener
	stats    *Stats
	tasks    chan net.Conn
	wg       sync.WaitGroup
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":0"
	}
	if cfg.Name == "" {
		cfg.Name = "blackjackd"
	}
	if cfg.BroadcastAddr == "" {
		cfg.BroadcastAddr = fmt.Sprintf("255.255.255.255:%d", DiscoveryPort)
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 32
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 32
	}
	if cfg.ClientTimeout == 0 {
		cfg.ClientTimeout = 60 * time.Second
	}
	return &Server{
		ServerConfig: cfg,
		stats:        NewStats(),
		tasks:        make(chan net.Conn, cfg.QueueSize),
	}
}

func (s *Server) Stats() *Stats {
	return s.stats
}

// Listen binds the TCP listener. The actual port is available from Port
// afterwards and is the one advertised by the broadcaster.
func (s *Server) Listen() error {
	ls, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.ListenAddr, err)
	}
	s.listener = ls.(*net.TCPListener)
	return nil
}

func (s *Server) Port() uint16 {
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start is Listen followed by Serve.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop until the context is cancelled, then drains
// in-flight sessions before returning.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server: Serve called before Listen")
	}
	defer s.listener.Close()

	go NewBroadcaster(s.BroadcastAddr, s.Name, s.Port()).Run(ctx)

	if s.APIListenAddr != "" {
		api := NewAPIServer(s.APIListenAddr, s.stats)
		go func() {
			if err := api.Run(); err != nil {
				logrus.WithError(err).Error("Stats API stopped")
			}
		}()
	}

	for i := 0; i < s.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	logrus.WithFields(logrus.Fields{
		"addr":    s.Addr(),
		"workers": s.MaxWorkers,
	}).Info("Accepting connections")

	for ctx.Err() == nil {
		// Short accept deadline so cancellation is observed.
		s.listener.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			logrus.WithError(err).Error("Accept failed")
			continue
		}
		// A full queue blocks here, delaying further accepts. That is
		// the only backpressure the protocol has.
		select {
		case s.tasks <- conn:
		case <-ctx.Done():
			conn.Close()
		}
	}

	close(s.tasks)
	s.wg.Wait()
	return nil
}

func (s *Server) worker() {
	defer s.wg.Done()
	for conn := range s.tasks {
		s.serveConn(conn)
	}
}

// serveConn performs the Request handshake and runs the session. An
// invalid handshake closes the connection silently; the protocol has no
// error message type.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	req, ok := s.readRequest(conn)
	if !ok {
		logrus.WithField("remote", remote).Warn("Invalid request, dropping connection")
		return
	}

	s.stats.ActiveSessions.Increment()
	s.stats.TotalSessions.Increment()
	defer s.stats.ActiveSessions.Decrement()

	sess := &session{
		conn:       conn,
		id:         uuid.New(),
		name:       req.Name,
		rounds:     int(req.Rounds),
		timeout:    s.ClientTimeout,
		dealDelay:  s.DealDelay,
		roundDelay: s.RoundDelay,
		newDeck:    deck.New,
		stats:      s.stats,
	}
	sess.log = logrus.WithFields(logrus.Fields{
		"session": sess.id.String(),
		"player":  req.Name,
		"remote":  remote,
	})

	sess.log.WithFields(logrus.Fields{
		"rounds": req.Rounds,
		"active": s.stats.ActiveSessions.Get(),
	}).Info("Player connected")

	if err := sess.run(); err != nil {
		sess.log.WithError(err).Warn("Session aborted")
		return
	}
	sess.log.Info("All requested rounds served")
}

func (s *Server) readRequest(conn net.Conn) (protocol.Request, bool) {
	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(s.ClientTimeout))
	n, err := conn.Read(buf)
	conn.SetReadDeadline(time.Time{})
	if err != nil || n == 0 {
		return protocol.Request{}, false
	}
	req, err := protocol.DecodeRequest(buf[:n])
	if err != nil {
		return protocol.Request{}, false
	}
	return req, true
}
