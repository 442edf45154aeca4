package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/deskprof/deskprof/internal/engine"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetMonitors   CommandType = "GET_MONITORS"
	CommandDetectProfile CommandType = "DETECT_PROFILE"
	CommandListProfiles  CommandType = "LIST_PROFILES"
	CommandGeneratePlan  CommandType = "GENERATE_PLAN"
	CommandApplyProfile  CommandType = "APPLY_PROFILE"
	CommandUpdateProfile CommandType = "UPDATE_PROFILE"
)

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

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning  bool   `json:"daemon_running"`
	ActiveProfile  string `json:"active_profile"`
	MonitorCount   int    `json:"monitor_count"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	AutoApply      bool   `json:"auto_apply"`
	LastApplyError string `json:"last_apply_error,omitempty"`
}

// MonitorInfo describes one connected display in internal coordinates.
type MonitorInfo struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Resolution string  `json:"resolution"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Scale      float64 `json:"scale"`
	BuiltIn    bool    `json:"built_in"`
	Workspace  bool    `json:"workspace"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// DetectData represents the data returned by DETECT_PROFILE
type DetectData struct {
	Profile string `json:"profile"`
	Matched bool   `json:"matched"`
}

// ProfilesData represents the data returned by LIST_PROFILES
type ProfilesData struct {
	Profiles []string `json:"profiles"`
	Active   string   `json:"active"`
}

// ProfilePayload names a profile for plan/apply/update commands. An empty
// name means "detect first" for plan and apply.
type ProfilePayload struct {
	Profile string `json:"profile,omitempty"`
}

// PlanData carries the per-application steps of a plan or apply run.
type PlanData struct {
	Result engine.Result `json:"result"`
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
