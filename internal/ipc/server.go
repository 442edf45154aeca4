package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/engine"
	"github.com/deskprof/deskprof/internal/runtimepath"
)

// Server handles IPC requests from clients. Apply and update runs are
// serialized behind applyMu; overlapping runs would race on window geometry.
type Server struct {
	socketPath   string
	listener     net.Listener
	store        *config.Store
	eng          *engine.Engine
	startTime    time.Time
	reloadChan   chan struct{}
	applyMu      sync.Mutex
	shuttingDown bool
	shutdownMu   sync.Mutex

	stateMu        sync.Mutex
	activeProfile  string
	lastApplyError string
}

// NewServer creates a new IPC server
func NewServer(store *config.Store, eng *engine.Engine, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		store:      store,
		eng:        eng,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandDetectProfile:
		return s.handleDetectProfile()
	case CommandListProfiles:
		return s.handleListProfiles()
	case CommandGeneratePlan:
		return s.handleGeneratePlan(req.Payload)
	case CommandApplyProfile:
		return s.handleApplyProfile(req.Payload)
	case CommandUpdateProfile:
		return s.handleUpdateProfile(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if _, err := s.store.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	// Notify the daemon loop (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	monitorCount := 0
	if monitors, err := s.eng.Monitors(""); err == nil {
		monitorCount = len(monitors)
	}

	s.stateMu.Lock()
	status := StatusData{
		DaemonRunning:  true,
		ActiveProfile:  s.activeProfile,
		MonitorCount:   monitorCount,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		AutoApply:      true,
		LastApplyError: s.lastApplyError,
	}
	s.stateMu.Unlock()

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	s.stateMu.Lock()
	active := s.activeProfile
	s.stateMu.Unlock()

	monitors, err := s.eng.Monitors(active)
	if err != nil {
		// Role tags are best-effort here; fall back to untagged monitors.
		monitors, err = s.eng.Monitors("")
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
		}
	}

	infos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = MonitorInfo{
			ID:         m.ID,
			Name:       m.Name,
			Resolution: m.Resolution,
			X:          m.Frame.X,
			Y:          m.Frame.Y,
			Width:      m.Frame.Width,
			Height:     m.Frame.Height,
			Scale:      m.Scale,
			BuiltIn:    m.BuiltIn,
			Workspace:  m.Workspace,
		}
	}

	resp, _ := NewOKResponse(MonitorsData{Monitors: infos})
	return resp
}

func (s *Server) handleDetectProfile() *Response {
	name, ok, err := s.eng.Detect()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to detect profile: %v", err))
	}

	resp, _ := NewOKResponse(DetectData{Profile: name, Matched: ok})
	return resp
}

func (s *Server) handleListProfiles() *Response {
	cfg, err := s.store.Config()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to load config: %v", err))
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	s.stateMu.Lock()
	active := s.activeProfile
	s.stateMu.Unlock()

	resp, _ := NewOKResponse(ProfilesData{Profiles: names, Active: active})
	return resp
}

func (s *Server) handleGeneratePlan(payload json.RawMessage) *Response {
	name, err := profileName(payload)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	result, err := s.eng.Plan(name)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to generate plan: %v", err))
	}

	resp, _ := NewOKResponse(PlanData{Result: *result})
	return resp
}

func (s *Server) handleApplyProfile(payload json.RawMessage) *Response {
	name, err := profileName(payload)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	s.applyMu.Lock()
	result, err := s.eng.Apply(name)
	s.applyMu.Unlock()

	s.stateMu.Lock()
	if err != nil {
		s.lastApplyError = err.Error()
	} else {
		s.activeProfile = result.Profile
		s.lastApplyError = ""
	}
	s.stateMu.Unlock()

	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply profile: %v", err))
	}

	resp, _ := NewOKResponse(PlanData{Result: *result})
	return resp
}

func (s *Server) handleUpdateProfile(payload json.RawMessage) *Response {
	name, err := profileName(payload)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if name == "" {
		return NewErrorResponse("profile is required")
	}

	s.applyMu.Lock()
	_, err = s.eng.Update(name)
	s.applyMu.Unlock()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to update profile: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func profileName(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	var p ProfilePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("invalid payload: %v", err)
	}
	return p.Profile, nil
}

// SetActiveProfile records the profile the daemon last applied, for status
// surfaces.
func (s *Server) SetActiveProfile(name string) {
	s.stateMu.Lock()
	s.activeProfile = name
	s.stateMu.Unlock()
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
