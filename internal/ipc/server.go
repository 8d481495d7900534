package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/placement"
	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/wm"
)

const streamWriteTimeout = 5 * time.Second

// Reloader re-reads configuration and applies it to the running daemon.
type Reloader func() (*config.Config, error)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	store        *wm.Store
	cfg          *config.Config
	cfgMu        sync.RWMutex
	reload       Reloader
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        map[net.Conn]struct{}
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server. An empty socketPath uses the runtime
// default.
func NewServer(socketPath string, store *wm.Store, cfg *config.Config, reload Reloader, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = path
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		socketPath: socketPath,
		store:      store,
		cfg:        cfg,
		reload:     reload,
		logger:     logger,
		startTime:  time.Now(),
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another daemon is already listening on %s", s.socketPath)
	}
	// Remove stale socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn("IPC accept error", "err", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) isShuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

func (s *Server) track(conn net.Conn) bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.shutdownMu.Lock()
	delete(s.conns, conn)
	s.shutdownMu.Unlock()
	conn.Close()
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "err", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if req.Command == CommandSubscribe {
		s.serveSubscription(conn, reader)
		return
	}

	resp := s.handleCommand(req)
	if err := writeResponse(conn, resp); err != nil {
		s.logger.Debug("failed to send response", "command", req.Command, "err", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	if _, ok := opCommands[req.Command]; ok {
		return s.handleIntent(req)
	}

	switch req.Command {
	case CommandListWindows:
		return okResponse(s.store.Snapshot())
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListApps:
		return s.handleListApps()
	case CommandLaunch:
		return s.handleLaunch(req.Payload)
	case CommandArrange:
		return s.handleArrange(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleIntent(req *Request) *Response {
	in, err := intentFromRequest(req)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	res, err := s.store.Apply(in)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if !res.Applied {
		s.logger.Debug("IPC: unknown window", "command", req.Command, "id", in.ID)
	}
	return okResponse(res)
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	snap := s.store.Snapshot()
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		WindowCount:   len(snap.Windows),
		TopZIndex:     snap.TopZIndex,
		Subscribers:   s.store.Subscribers(),
		Stats:         s.store.Stats(),
	}
	if w, ok := snap.Focused(); ok {
		status.FocusedID = w.ID
	}
	return okResponse(status)
}

func (s *Server) handleListApps() *Response {
	cfg := s.GetConfig()
	snap := s.store.Snapshot()

	data := AppsData{Apps: make([]AppInfo, 0, len(cfg.Apps))}
	for _, app := range cfg.Apps {
		_, open := snap.Find(app.ID)
		data.Apps = append(data.Apps, AppInfo{
			ID:     app.ID,
			Title:  app.Title,
			Width:  app.Width,
			Height: app.Height,
			Open:   open,
		})
	}
	return okResponse(data)
}

func (s *Server) handleLaunch(payload json.RawMessage) *Response {
	var req LaunchPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid launch payload: %v", err))
	}
	app, ok := s.GetConfig().FindApp(req.App)
	if !ok {
		return NewErrorResponse(fmt.Sprintf("Unknown app: %s", req.App))
	}
	spec, err := app.OpenSpec()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	res, err := s.store.Apply(wm.OpenIntent(spec))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	s.logger.Info("IPC: launched app", "app", app.ID)
	return okResponse(res)
}

func (s *Server) handleArrange(payload json.RawMessage) *Response {
	var req ArrangePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid arrange payload: %v", err))
	}
	mode, err := placement.ParseMode(req.Mode)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	cfg := s.GetConfig()
	intents, err := placement.Arrange(mode, s.store.Windows(), cfg.DesktopRect(), cfg.Placement.GapSize, cfg.Cascade())
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to arrange: %v", err))
	}
	for _, in := range intents {
		if _, err := s.store.Apply(in); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to arrange: %v", err))
		}
	}

	return okResponse(ArrangeData{
		Mode:     string(mode),
		Arranged: len(intents) / 2,
		Snapshot: s.store.Snapshot(),
	})
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported by this server")
	}
	s.logger.Info("IPC: received RELOAD command")

	newCfg, err := s.reload()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.UpdateConfig(newCfg)
	return okResponse(nil)
}

// serveSubscription streams store events to the connection until either
// side closes it. The first line is the snapshot the stream starts from.
func (s *Server) serveSubscription(conn net.Conn, reader *bufio.Reader) {
	sub, snap := s.store.SubscribeSnapshot(s.GetConfig().GetEventBuffer())
	defer sub.Close()

	if err := writeResponse(conn, okResponse(snap)); err != nil {
		return
	}
	s.logger.Debug("IPC: subscriber attached", "subscribers", s.store.Subscribers())

	// Any read completion means the client hung up.
	go func() {
		io.Copy(io.Discard, reader)
		sub.Close()
	}()

	enc := json.NewEncoder(conn)
	for ev := range sub.C {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := enc.Encode(ev); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("IPC: subscriber write failed", "err", err)
			}
			return
		}
	}
	if n := sub.Dropped(); n > 0 {
		s.logger.Warn("IPC: slow subscriber dropped events", "dropped", n)
	}
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func writeResponse(conn net.Conn, resp *Response) error {
	data, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	writeResponse(conn, NewErrorResponse(errMsg))
}

// Stop closes the listener and every open connection, then removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	for conn := range s.conns {
		conn.Close()
	}
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
