package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/wm"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, req *Request) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(reader *bufio.Reader) (*Response, error) {
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}
	return readResponse(bufio.NewReader(conn))
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Apply sends a window intent to the daemon.
func (c *Client) Apply(in wm.Intent) (wm.Result, error) {
	if err := in.Validate(); err != nil {
		return wm.Result{}, err
	}
	req, err := requestFromIntent(in)
	if err != nil {
		return wm.Result{}, err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return wm.Result{}, err
	}
	var res wm.Result
	if err := json.Unmarshal(resp.Data, &res); err != nil {
		return wm.Result{}, fmt.Errorf("failed to parse result: %w", err)
	}
	return res, nil
}

// Open opens a window or brings an existing one to the front.
func (c *Client) Open(spec wm.OpenSpec) (wm.Result, error) {
	return c.Apply(wm.OpenIntent(spec))
}

func (c *Client) Close(id string) (wm.Result, error) {
	return c.Apply(wm.Intent{Op: wm.OpClose, ID: id})
}

func (c *Client) Minimize(id string) (wm.Result, error) {
	return c.Apply(wm.Intent{Op: wm.OpMinimize, ID: id})
}

func (c *Client) Maximize(id string) (wm.Result, error) {
	return c.Apply(wm.Intent{Op: wm.OpMaximize, ID: id})
}

func (c *Client) Restore(id string) (wm.Result, error) {
	return c.Apply(wm.Intent{Op: wm.OpRestore, ID: id})
}

func (c *Client) Focus(id string) (wm.Result, error) {
	return c.Apply(wm.Intent{Op: wm.OpFocus, ID: id})
}

func (c *Client) Move(id string, x, y int) (wm.Result, error) {
	return c.Apply(wm.MoveIntent(id, x, y))
}

func (c *Client) Resize(id string, width, height int) (wm.Result, error) {
	return c.Apply(wm.ResizeIntent(id, width, height))
}

// Snapshot retrieves the current window list.
func (c *Client) Snapshot() (wm.Snapshot, error) {
	var snap wm.Snapshot
	err := c.call(CommandListWindows, nil, &snap)
	return snap, err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListApps retrieves the launchable app catalog.
func (c *Client) ListApps() (*AppsData, error) {
	var data AppsData
	if err := c.call(CommandListApps, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Launch opens (or refocuses) a catalog app.
func (c *Client) Launch(app string) (wm.Result, error) {
	var res wm.Result
	err := c.call(CommandLaunch, LaunchPayload{App: app}, &res)
	return res, err
}

// Arrange lays out visible windows as a grid or cascade.
func (c *Client) Arrange(mode string) (*ArrangeData, error) {
	var data ArrangeData
	if err := c.call(CommandArrange, ArrangePayload{Mode: mode}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

// Stream is a live event feed from the daemon.
type Stream struct {
	// Snapshot is the state the stream starts from.
	Snapshot wm.Snapshot
	// Events is closed when the stream ends; see Err.
	Events <-chan wm.Event

	conn      net.Conn
	closed    chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Subscribe opens an event stream. The stream ends when ctx is done, Close is
// called, or the daemon goes away.
func (c *Client) Subscribe(ctx context.Context) (*Stream, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}

	conn.SetDeadline(time.Now().Add(c.timeout))
	if err := writeRequest(conn, &Request{Command: CommandSubscribe}); err != nil {
		conn.Close()
		return nil, err
	}
	reader := bufio.NewReader(conn)
	resp, err := readResponse(reader)
	if err != nil {
		conn.Close()
		return nil, err
	}
	var snap wm.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	conn.SetDeadline(time.Time{})

	events := make(chan wm.Event)
	st := &Stream{Snapshot: snap, Events: events, conn: conn, closed: make(chan struct{})}

	go func() {
		select {
		case <-ctx.Done():
			st.Close()
		case <-st.closed:
		}
	}()

	go func() {
		defer close(events)
		defer st.Close()
		dec := json.NewDecoder(reader)
		for {
			var ev wm.Event
			if err := dec.Decode(&ev); err != nil {
				if !st.isClosed() && !errors.Is(err, net.ErrClosed) {
					st.setErr(fmt.Errorf("event stream ended: %w", err))
				}
				return
			}
			select {
			case events <- ev:
			case <-st.closed:
				return
			}
		}
	}()

	return st, nil
}

func (st *Stream) isClosed() bool {
	select {
	case <-st.closed:
		return true
	default:
		return false
	}
}

func (st *Stream) setErr(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err == nil {
		st.err = err
	}
}

// Err returns why the stream ended, or nil for a clean shutdown.
func (st *Stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

// Close ends the stream.
func (st *Stream) Close() error {
	var err error
	st.closeOnce.Do(func() {
		close(st.closed)
		err = st.conn.Close()
	})
	return err
}
