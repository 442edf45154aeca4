package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/deskprof/deskprof/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    30 * time.Second,
	}
}

// sendRequest sends a request and waits for a response. The timeout is
// generous because an apply run blocks on window writes and their retry
// delays.
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
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

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetMonitors retrieves the role-tagged monitor list
func (c *Client) GetMonitors() (*MonitorsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetMonitors})
	if err != nil {
		return nil, err
	}

	var monitors MonitorsData
	if err := json.Unmarshal(resp.Data, &monitors); err != nil {
		return nil, fmt.Errorf("failed to parse monitors data: %w", err)
	}
	return &monitors, nil
}

// DetectProfile asks the daemon which profile matches the connected displays
func (c *Client) DetectProfile() (*DetectData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandDetectProfile})
	if err != nil {
		return nil, err
	}

	var data DetectData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse detect data: %w", err)
	}
	return &data, nil
}

// ListProfiles retrieves configured profile names and the active one
func (c *Client) ListProfiles() (*ProfilesData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListProfiles})
	if err != nil {
		return nil, err
	}

	var data ProfilesData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse profiles data: %w", err)
	}
	return &data, nil
}

// GeneratePlan retrieves a dry-run plan. An empty name means detect first.
func (c *Client) GeneratePlan(profile string) (*PlanData, error) {
	return c.profileCommand(CommandGeneratePlan, profile)
}

// ApplyProfile applies a profile. An empty name means detect first.
func (c *Client) ApplyProfile(profile string) (*PlanData, error) {
	return c.profileCommand(CommandApplyProfile, profile)
}

func (c *Client) profileCommand(cmd CommandType, profile string) (*PlanData, error) {
	payload, err := json.Marshal(ProfilePayload{Profile: profile})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: cmd, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data PlanData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse plan data: %w", err)
	}
	return &data, nil
}

// UpdateProfile saves the current monitor arrangement under the given name
func (c *Client) UpdateProfile(profile string) error {
	payload, err := json.Marshal(ProfilePayload{Profile: profile})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandUpdateProfile, Payload: payload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
