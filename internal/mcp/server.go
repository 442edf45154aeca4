// Package mcp exposes profile detection and window placement as MCP tools
// over stdio, so editor assistants can drive the same engine the CLI uses.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/engine"
	"github.com/deskprof/deskprof/internal/geo"
)

const (
	ServerName    = "deskprof"
	ServerVersion = "0.1.0"
)

// Server is the MCP server over the placement engine.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *config.Store
	eng       *engine.Engine

	// applyMu serializes apply/update; concurrent runs race on window state.
	applyMu sync.Mutex
}

// NewServer creates a new MCP server.
func NewServer(store *config.Store, eng *engine.Engine) *Server {
	s := &Server{store: store, eng: eng}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "detect_profile",
		Description: "Detect which configured profile exactly matches the resolutions of the currently connected displays. No match is a normal outcome, not an error.",
	}, s.handleDetectProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_profiles",
		Description: "List the configured profiles and the resolution set each one requires.",
	}, s.handleListProfiles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the connected displays with their internal-coordinate frames and role tags (built-in, workspace).",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "generate_plan",
		Description: "Compute the window moves a profile apply would perform, without moving anything. Defaults to the detected profile.",
	}, s.handleGeneratePlan)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_profile",
		Description: "Position every configured application window for a profile. Defaults to the detected profile. Per-application failures are reported in the steps, not raised as errors.",
	}, s.handleApplyProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_profile",
		Description: "Save the currently connected monitor arrangement under a profile name, overwriting any existing definition.",
	}, s.handleUpdateProfile)
}

func (s *Server) handleDetectProfile(_ context.Context, _ *mcpsdk.CallToolRequest, _ DetectProfileInput) (*mcpsdk.CallToolResult, DetectProfileOutput, error) {
	name, ok, err := s.eng.Detect()
	if err != nil {
		return nil, DetectProfileOutput{}, err
	}
	return nil, DetectProfileOutput{Profile: name, Matched: ok}, nil
}

func (s *Server) handleListProfiles(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListProfilesInput) (*mcpsdk.CallToolResult, ListProfilesOutput, error) {
	cfg, err := s.store.Config()
	if err != nil {
		return nil, ListProfilesOutput{}, err
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ListProfilesOutput{Profiles: make([]ProfileSummary, 0, len(names))}
	for _, name := range names {
		p := cfg.Profiles[name]
		resolutions := make([]string, 0, len(p.Monitors))
		for _, spec := range p.Monitors {
			resolutions = append(resolutions, spec.Resolution)
		}
		out.Profiles = append(out.Profiles, ProfileSummary{Name: name, Resolutions: resolutions})
	}
	return nil, out, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, args ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	profileName := args.Profile
	if profileName == "" {
		if name, ok, err := s.eng.Detect(); err == nil && ok {
			profileName = name
		}
	}

	monitors, err := s.eng.Monitors(profileName)
	if err != nil {
		return nil, ListMonitorsOutput{}, err
	}

	out := ListMonitorsOutput{Monitors: make([]MonitorSummary, 0, len(monitors))}
	for _, m := range monitors {
		out.Monitors = append(out.Monitors, MonitorSummary{
			Name:       m.Name,
			Resolution: m.Resolution,
			X:          m.Frame.X,
			Y:          m.Frame.Y,
			Width:      m.Frame.Width,
			Height:     m.Frame.Height,
			BuiltIn:    m.BuiltIn,
			Workspace:  m.Workspace,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGeneratePlan(_ context.Context, _ *mcpsdk.CallToolRequest, args GeneratePlanInput) (*mcpsdk.CallToolResult, GeneratePlanOutput, error) {
	result, err := s.eng.Plan(args.Profile)
	if err != nil {
		return nil, GeneratePlanOutput{}, err
	}
	return nil, GeneratePlanOutput{Profile: result.Profile, Steps: planSteps(result)}, nil
}

func (s *Server) handleApplyProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args ApplyProfileInput) (*mcpsdk.CallToolResult, ApplyProfileOutput, error) {
	s.applyMu.Lock()
	result, err := s.eng.Apply(args.Profile)
	s.applyMu.Unlock()
	if err != nil {
		return nil, ApplyProfileOutput{}, err
	}

	return nil, ApplyProfileOutput{
		Profile: result.Profile,
		Moved:   result.Moved(),
		Failed:  result.Failed(),
		Steps:   planSteps(result),
	}, nil
}

func (s *Server) handleUpdateProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateProfileInput) (*mcpsdk.CallToolResult, UpdateProfileOutput, error) {
	if args.Profile == "" {
		return nil, UpdateProfileOutput{}, fmt.Errorf("profile is required")
	}

	s.applyMu.Lock()
	specs, err := s.eng.Update(args.Profile)
	s.applyMu.Unlock()
	if err != nil {
		return nil, UpdateProfileOutput{}, err
	}

	resolutions := make([]string, 0, len(specs))
	for _, spec := range specs {
		resolutions = append(resolutions, spec.Resolution)
	}
	return nil, UpdateProfileOutput{Profile: args.Profile, Resolutions: resolutions}, nil
}

func planSteps(result *engine.Result) []PlanStep {
	steps := make([]PlanStep, 0, len(result.Steps))
	for _, st := range result.Steps {
		steps = append(steps, PlanStep{
			App:       st.App,
			Display:   st.Display,
			Placement: string(st.Placement),
			Outcome:   string(st.Outcome),
			Target:    formatRect(st.Target),
		})
	}
	return steps
}

func formatRect(r *geo.Rect) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.0f,%.0f %.0fx%.0f", r.X, r.Y, r.Width, r.Height)
}
