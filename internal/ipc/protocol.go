package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskwm/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandOpen        CommandType = "OPEN"
	CommandClose       CommandType = "CLOSE"
	CommandMinimize    CommandType = "MINIMIZE"
	CommandMaximize    CommandType = "MAXIMIZE"
	CommandRestore     CommandType = "RESTORE"
	CommandFocus       CommandType = "FOCUS"
	CommandMove        CommandType = "MOVE"
	CommandResize      CommandType = "RESIZE"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListApps    CommandType = "LIST_APPS"
	CommandLaunch      CommandType = "LAUNCH"
	CommandArrange     CommandType = "ARRANGE"
	CommandReload      CommandType = "RELOAD"
	CommandSubscribe   CommandType = "SUBSCRIBE"
)

// opCommands maps window commands to store operations.
var opCommands = map[CommandType]wm.Op{
	CommandOpen:     wm.OpOpen,
	CommandClose:    wm.OpClose,
	CommandMinimize: wm.OpMinimize,
	CommandMaximize: wm.OpMaximize,
	CommandRestore:  wm.OpRestore,
	CommandFocus:    wm.OpFocus,
	CommandMove:     wm.OpMove,
	CommandResize:   wm.OpResize,
}

// CommandForOp returns the IPC command carrying op.
func CommandForOp(op wm.Op) (CommandType, bool) {
	for cmd, candidate := range opCommands {
		if candidate == op {
			return cmd, true
		}
	}
	return "", false
}

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// OpenPayload is the payload for OPEN.
type OpenPayload struct {
	Spec wm.OpenSpec `json:"spec"`
}

// WindowPayload is the payload for CLOSE, MINIMIZE, MAXIMIZE, RESTORE and FOCUS.
type WindowPayload struct {
	ID string `json:"id"`
}

// MovePayload is the payload for MOVE.
type MovePayload struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// ResizePayload is the payload for RESIZE.
type ResizePayload struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// LaunchPayload is the payload for LAUNCH.
type LaunchPayload struct {
	App string `json:"app"`
}

// ArrangePayload is the payload for ARRANGE.
type ArrangePayload struct {
	Mode string `json:"mode"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64    `json:"uptime_seconds"`
	WindowCount   int      `json:"window_count"`
	TopZIndex     int      `json:"top_z_index"`
	FocusedID     string   `json:"focused_id,omitempty"`
	Subscribers   int      `json:"subscribers"`
	Stats         wm.Stats `json:"stats"`
}

// AppInfo describes one launchable app.
type AppInfo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Open   bool   `json:"open"`
}

// AppsData represents the data returned by LIST_APPS
type AppsData struct {
	Apps []AppInfo `json:"apps"`
}

// ArrangeData represents the data returned by ARRANGE
type ArrangeData struct {
	Mode     string      `json:"mode"`
	Arranged int         `json:"arranged"`
	Snapshot wm.Snapshot `json:"snapshot"`
}

// intentFromRequest decodes a window command into a store intent.
func intentFromRequest(req *Request) (wm.Intent, error) {
	op, ok := opCommands[req.Command]
	if !ok {
		return wm.Intent{}, fmt.Errorf("not a window command: %s", req.Command)
	}
	if len(req.Payload) == 0 {
		return wm.Intent{}, fmt.Errorf("%s requires a payload", req.Command)
	}

	switch op {
	case wm.OpOpen:
		var p OpenPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return wm.Intent{}, fmt.Errorf("invalid open payload: %w", err)
		}
		return wm.OpenIntent(p.Spec), nil
	case wm.OpMove:
		var p MovePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return wm.Intent{}, fmt.Errorf("invalid move payload: %w", err)
		}
		return wm.MoveIntent(p.ID, p.X, p.Y), nil
	case wm.OpResize:
		var p ResizePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return wm.Intent{}, fmt.Errorf("invalid resize payload: %w", err)
		}
		return wm.ResizeIntent(p.ID, p.Width, p.Height), nil
	default:
		var p WindowPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return wm.Intent{}, fmt.Errorf("invalid %s payload: %w", op, err)
		}
		return wm.Intent{Op: op, ID: p.ID}, nil
	}
}

// requestFromIntent encodes a store intent as a window command.
func requestFromIntent(in wm.Intent) (*Request, error) {
	cmd, ok := CommandForOp(in.Op)
	if !ok {
		return nil, fmt.Errorf("%w: unknown op %q", wm.ErrInvalidIntent, in.Op)
	}

	var payload any
	switch in.Op {
	case wm.OpOpen:
		if in.Spec == nil {
			return nil, fmt.Errorf("%w: open requires a spec", wm.ErrInvalidIntent)
		}
		payload = OpenPayload{Spec: *in.Spec}
	case wm.OpMove:
		payload = MovePayload{ID: in.ID, X: in.X, Y: in.Y}
	case wm.OpResize:
		payload = ResizePayload{ID: in.ID, Width: in.Width, Height: in.Height}
	default:
		payload = WindowPayload{ID: in.ID}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", in.Op, err)
	}
	return &Request{Command: cmd, Payload: data}, nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
