package feed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gekko3d/simviewer"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Server accepts websocket connections and applies every text message it
// receives to one viewer. Messages from all connections are applied one at a
// time; each is answered with a Reply.
type Server struct {
	viewer    *simviewer.Viewer
	log       simviewer.Logger
	cfg       simviewer.FeedConfig
	upgrader  websocket.Upgrader
	applyMu   sync.Mutex
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	wg        sync.WaitGroup
	closed    atomic.Bool
	applied   atomic.Int64
	rejected  atomic.Int64
	httpSrv   *http.Server
	listening chan struct{}
	addr      net.Addr
}

func NewServer(v *simviewer.Viewer, cfg simviewer.FeedConfig) *Server {
	return &Server{
		viewer:  v,
		log:     v.Logger(),
		cfg:     cfg,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		listening: make(chan struct{}),
	}
}

// Handler routes the configured path to the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	path := s.cfg.Path
	if path == "" {
		path = "/"
	}
	mux.Handle(path, s)
	return mux
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("feed: upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	if !s.register(conn) {
		conn.Close()
		return
	}
	defer s.wg.Done()
	defer s.unregister(conn)

	s.log.Infof("feed: client %s connected", conn.RemoteAddr())
	s.serve(conn)
	s.log.Infof("feed: client %s disconnected", conn.RemoteAddr())
}

// register tracks conn unless the server was closed while it was being
// upgraded. The caller owns conn when register returns false.
func (s *Server) register(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.clients[conn] = true
	s.wg.Add(1)
	return true
}

func (s *Server) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) serve(conn *websocket.Conn) {
	if s.cfg.ReadLimit > 0 {
		conn.SetReadLimit(s.cfg.ReadLimit)
	}
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warnf("feed: read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		reply := s.handle(data)
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warnf("feed: reply to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// handle decodes and applies one message. Bad input is logged and reported
// back, the connection stays open.
func (s *Server) handle(data []byte) Reply {
	msg, err := Decode(data)
	if err == nil {
		s.applyMu.Lock()
		err = Apply(s.viewer, msg)
		s.applyMu.Unlock()
	}
	tick := s.viewer.Registry().Tick()
	if err != nil {
		s.rejected.Add(1)
		s.log.Warnf("feed: %v", err)
		return Reply{OK: false, Error: err.Error(), Tick: tick}
	}
	s.applied.Add(1)
	return Reply{OK: true, Tick: tick}
}

// Stats returns how many messages were applied and rejected.
func (s *Server) Stats() (applied, rejected int64) {
	return s.applied.Load(), s.rejected.Load()
}

// Clients returns the number of open connections.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ListenAndServe serves on the configured address until ctx is done or
// Close is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		close(s.listening)
		return err
	}
	srv := &http.Server{Handler: s.Handler()}
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		close(s.listening)
		return ln.Close()
	}
	s.httpSrv = srv
	s.addr = ln.Addr()
	s.mu.Unlock()
	close(s.listening)
	s.log.Infof("feed: listening on ws://%s%s", ln.Addr(), s.cfg.Path)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr blocks until ListenAndServe is listening and returns its address, or
// nil when listening failed.
func (s *Server) Addr() net.Addr {
	<-s.listening
	return s.addr
}

// Close stops accepting connections, closes all clients and waits for their
// handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpSrv
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(ctx)
	}

	// no handler can register once closed is set under mu
	s.wg.Wait()
	return err
}
