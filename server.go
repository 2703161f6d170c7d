// Package kvhub provides the RESP-speaking, in-memory key-value server
// built on top of the gnet event-loop framework. It wires the wire
// codecs in package resp and the command lowering in package command
// to the single-mutex command engine in package engine, the same way
// the teacher framework wires its own handler callback to application
// code — except here the dispatch is fixed, not supplied by the
// caller, since this server only ever speaks one protocol.
package kvhub

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kvhub/kvhub/command"
	"github.com/kvhub/kvhub/engine"
	"github.com/kvhub/kvhub/resp"
)

// Options configures a Server. The zero value is usable — every field
// has a documented default applied by ListenAndServe.
type Options struct {
	// Multicore enables multiple gnet event loops, distributing
	// connections across them. Default: false.
	Multicore bool

	// NumEventLoop sets the number of event loops. 0 means
	// runtime.NumCPU(), and only takes effect when Multicore is set.
	NumEventLoop int

	// ReadBufferCap sets the per-connection read buffer capacity in
	// bytes. Default: gnet's own default (64KB).
	ReadBufferCap int

	// ReusePort enables SO_REUSEPORT. Default: false.
	ReusePort bool

	// MaxConnections caps the number of simultaneously open
	// connections. 0 means unlimited. Connections beyond the cap are
	// accepted and immediately closed with an error reply.
	MaxConnections int64

	// TLSListenEnable starts a TLS listener alongside the plain TCP
	// listener, proxying decrypted traffic into the same engine.
	// Default: false.
	TLSListenEnable bool

	// TLSCertFile and TLSKeyFile locate the TLS keypair. Required when
	// TLSListenEnable is true.
	TLSCertFile string
	TLSKeyFile  string

	// TLSAddr overrides the derived TLS listen address. If empty, it
	// is derived from the main address by incrementing the port.
	TLSAddr string

	// TLSProxyPoolSize bounds the goroutine pool used to pump bytes
	// between TLS and plaintext connections. Default: 256.
	TLSProxyPoolSize int

	// Logger receives connection and protocol-error events. A nil
	// Logger disables logging.
	Logger *zap.Logger
}

// Server adapts the engine to the gnet.EventHandler interface. One
// Server serves exactly one Engine; unlike the teacher framework it
// does not take a caller-supplied handler because the command set and
// its semantics are fixed.
type Server struct {
	eng     *engine.Engine
	log     *zap.Logger
	bufs    map[gnet.Conn]*connBuffer
	bufsMu  sync.RWMutex
	conns   *semaphore.Weighted
	gnetEng gnet.Engine
	mu      sync.Mutex
	addr    string
	running bool
	tlsLn   net.Listener
	tlsPool *ants.Pool
	tlsFwd  string
}

// connBuffer holds the unconsumed bytes for one connection. Unlike the
// teacher's buffer it carries no pending-command queue: requests are
// applied to the engine and replied to as soon as they are framed, one
// at a time, inside OnTraffic.
type connBuffer struct {
	leftover []byte
}

// NewServer creates a Server dispatching onto eng. A nil Logger in
// opts disables logging entirely.
func NewServer(eng *engine.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var conns *semaphore.Weighted
	if opts.MaxConnections > 0 {
		conns = semaphore.NewWeighted(opts.MaxConnections)
	}
	return &Server{
		eng:   eng,
		log:   logger,
		bufs:  make(map[gnet.Conn]*connBuffer),
		conns: conns,
	}
}

// OnBoot records the gnet.Engine handle needed for a graceful Close.
func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.gnetEng = eng
	s.mu.Unlock()
	s.log.Info("server booted", zap.String("addr", s.addr))
	return gnet.None
}

// OnShutdown is a no-op; nothing owned by Server needs draining beyond
// what Close already does.
func (s *Server) OnShutdown(gnet.Engine) {}

// OnOpen admits a new connection, rejecting it immediately if
// MaxConnections has been reached.
func (s *Server) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	if s.conns != nil && !s.conns.TryAcquire(1) {
		s.log.Warn("connection rejected: max connections reached", zap.String("remote", c.RemoteAddr().String()))
		return resp.AppendError(nil, "ERR max number of clients reached"), gnet.Close
	}
	s.bufsMu.Lock()
	s.bufs[c] = new(connBuffer)
	s.bufsMu.Unlock()
	return nil, gnet.None
}

// OnClose releases the connection's buffer and its semaphore slot.
func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.bufsMu.Lock()
	delete(s.bufs, c)
	s.bufsMu.Unlock()
	if s.conns != nil {
		s.conns.Release(1)
	}
	if err != nil {
		s.log.Debug("connection closed", zap.Error(err))
	}
	return gnet.None
}

// OnTraffic is the request pipeline: it reads everything available,
// appends it to the connection's leftover buffer, then repeatedly
// frames one request with resp.ReadRequest, lowers it with
// command.Lower, applies it to the engine, and appends the encoded
// result — batching every reply produced by one OnTraffic call into a
// single write, the same batching discipline the teacher framework
// uses for pipelined commands.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	s.bufsMu.RLock()
	cb, ok := s.bufs[c]
	s.bufsMu.RUnlock()
	if !ok {
		_, _ = c.Write(resp.AppendError(nil, "ERR client is closed"))
		return gnet.None
	}

	chunk, _ := c.Next(-1)
	if len(chunk) == 0 {
		return gnet.None
	}

	buf := append(cb.leftover, chunk...)
	cb.leftover = nil

	var out []byte
	for {
		complete, tokens, rest, err := resp.ReadRequest(buf)
		if err != nil {
			out = resp.AppendError(out, "ERR Protocol error: "+err.Error())
			if len(out) > 0 {
				_, _ = c.Write(out)
			}
			return gnet.Close
		}
		if !complete {
			break
		}
		buf = rest

		if len(tokens) == 0 {
			continue
		}

		cmd, lowerErr := command.Lower(tokens)
		if lowerErr != nil {
			out = resp.AppendError(out, lowerErr.Error())
			continue
		}

		if cmd.Kind == command.Ping && cmd.Message == nil {
			out = resp.AppendSimpleString(out, "PONG")
			continue
		}

		reply, applyErr := s.eng.Apply(cmd)
		out = resp.AppendResult(out, reply, applyErr)
	}

	if len(buf) > 0 {
		stored := make([]byte, len(buf))
		copy(stored, buf)
		cb.leftover = stored
	}

	if len(out) > 0 {
		_, _ = c.Write(out)
	}
	return gnet.None
}

// OnTick is unused; the server performs no periodic work.
func (s *Server) OnTick() (time.Duration, gnet.Action) {
	return 0, gnet.None
}

func deriveTLSAddr(tcpAddr string) string {
	if !strings.HasPrefix(tcpAddr, "tcp://") {
		return ""
	}
	hostPort := strings.TrimPrefix(tcpAddr, "tcp://")
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return ""
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ""
	}
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port+1))
}

// startTLSListener starts a TLS listener that decrypts and forwards
// traffic to the plaintext listener, using a bounded goroutine pool
// (package ants) to pump bytes in each direction instead of an
// unbounded go statement per connection per direction.
func (s *Server) startTLSListener(opts Options) error {
	cert, err := tls.LoadX509KeyPair(opts.TLSCertFile, opts.TLSKeyFile)
	if err != nil {
		return err
	}

	tlsAddr := opts.TLSAddr
	if tlsAddr == "" {
		tlsAddr = deriveTLSAddr(s.addr)
		if tlsAddr == "" {
			return errors.New("failed to derive TLS address from listen address")
		}
	}
	listenAddr := strings.TrimPrefix(tlsAddr, "tcp://")

	s.tlsLn, err = tls.Listen("tcp", listenAddr, &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		return err
	}

	poolSize := opts.TLSProxyPoolSize
	if poolSize <= 0 {
		poolSize = 256
	}
	s.tlsPool, err = ants.NewPool(poolSize)
	if err != nil {
		return err
	}

	s.tlsFwd = strings.TrimPrefix(s.addr, "tcp://")
	go s.acceptTLSConnections()
	return nil
}

func (s *Server) acceptTLSConnections() {
	for {
		conn, err := s.tlsLn.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return
			}
			continue
		}
		tlsConn := conn
		if err := s.tlsPool.Submit(func() { s.proxyTLSConn(tlsConn) }); err != nil {
			s.log.Warn("dropping TLS connection: proxy pool saturated", zap.Error(err))
			_ = tlsConn.Close()
		}
	}
}

func (s *Server) proxyTLSConn(tlsConn net.Conn) {
	defer tlsConn.Close()

	plainConn, err := net.Dial("tcp", s.tlsFwd)
	if err != nil {
		s.log.Warn("TLS proxy dial failed", zap.Error(err))
		return
	}
	defer plainConn.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	pump := func(dst, src net.Conn) {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
	if err := s.tlsPool.Submit(func() { pump(plainConn, tlsConn) }); err != nil {
		wg.Done()
	}
	if err := s.tlsPool.Submit(func() { pump(tlsConn, plainConn) }); err != nil {
		wg.Done()
	}
	wg.Wait()
}

// ListenAndServe starts the server on addr (format "tcp://host:port")
// and blocks until it stops or an error occurs.
func (s *Server) ListenAndServe(addr string, opts Options) error {
	if opts.TLSListenEnable && (opts.TLSCertFile == "" || opts.TLSKeyFile == "") {
		return errors.New("TLSListenEnable requires TLSCertFile and TLSKeyFile")
	}

	var gopts []gnet.Option
	if opts.Multicore {
		gopts = append(gopts, gnet.WithMulticore(true))
	}
	if opts.NumEventLoop > 0 {
		gopts = append(gopts, gnet.WithNumEventLoop(opts.NumEventLoop))
	}
	if opts.ReadBufferCap > 0 {
		gopts = append(gopts, gnet.WithReadBufferCap(opts.ReadBufferCap))
	}
	if opts.ReusePort {
		gopts = append(gopts, gnet.WithReusePort(true))
	}
	gopts = append(gopts, gnet.WithTCPNoDelay(gnet.TCPNoDelay))

	s.mu.Lock()
	s.addr = addr
	s.running = true
	s.mu.Unlock()

	if opts.TLSListenEnable {
		if err := s.startTLSListener(opts); err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return err
		}
	}

	err := gnet.Run(s, addr, gopts...)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if s.tlsLn != nil {
		_ = s.tlsLn.Close()
	}
	if s.tlsPool != nil {
		s.tlsPool.Release()
	}
	return err
}

// Close gracefully stops a running server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("server not running")
	}
	s.running = false

	var tlsErr error
	if s.tlsLn != nil {
		tlsErr = s.tlsLn.Close()
	}
	stopErr := s.gnetEng.Stop(context.Background())
	return multierr.Combine(tlsErr, stopErr)
}
