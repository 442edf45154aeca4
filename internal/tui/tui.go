// Package tui is the interactive terminal frontend. It talks to the daemon
// over IPC only; all placement work happens on the daemon side so the TUI
// never holds its own X11 connection.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/deskprof/deskprof/internal/ipc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("78"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

type profilesMsg struct {
	data *ipc.ProfilesData
	err  error
}

type detectMsg struct {
	data *ipc.DetectData
	err  error
}

type planMsg struct {
	data *ipc.PlanData
	err  error
}

type applyMsg struct {
	data *ipc.PlanData
	err  error
}

type updateMsg struct {
	profile string
	err     error
}

// model is the root bubbletea model.
type model struct {
	client *ipc.Client

	profiles []string
	active   string
	detected string
	selected int

	plan       *ipc.PlanData
	planFor    string
	status     string
	lastErr    string
	applying   bool

	// Update-profile overlay
	form       *huh.Form
	formName   string
	formActive bool

	width  int
	height int
}

func newModel(client *ipc.Client) model {
	return model{client: client}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchProfiles(), m.fetchDetected())
}

func (m model) fetchProfiles() tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.ListProfiles()
		return profilesMsg{data: data, err: err}
	}
}

func (m model) fetchDetected() tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.DetectProfile()
		return detectMsg{data: data, err: err}
	}
}

func (m model) fetchPlan(profile string) tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.GeneratePlan(profile)
		return planMsg{data: data, err: err}
	}
}

func (m model) applyProfile(profile string) tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.ApplyProfile(profile)
		return applyMsg{data: data, err: err}
	}
}

func (m model) updateProfile(profile string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.UpdateProfile(profile)
		return updateMsg{profile: profile, err: err}
	}
}

func (m model) selectedProfile() string {
	if m.selected < 0 || m.selected >= len(m.profiles) {
		return ""
	}
	return m.profiles[m.selected]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The update-profile form captures input while active.
	if m.formActive {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				return m, m.fetchPlan(m.selectedProfile())
			}

		case "down", "j":
			if m.selected < len(m.profiles)-1 {
				m.selected++
				return m, m.fetchPlan(m.selectedProfile())
			}

		case "enter", "a":
			if name := m.selectedProfile(); name != "" && !m.applying {
				m.applying = true
				m.status = "applying " + name + "..."
				return m, m.applyProfile(name)
			}

		case "p":
			if name := m.selectedProfile(); name != "" {
				return m, m.fetchPlan(name)
			}

		case "d":
			return m, m.fetchDetected()

		case "r":
			m.status = "reloading config"
			if err := m.client.Reload(); err != nil {
				m.lastErr = err.Error()
				return m, nil
			}
			return m, tea.Batch(m.fetchProfiles(), m.fetchDetected())

		case "u":
			m.formName = m.selectedProfile()
			m.form = newUpdateForm(&m.formName)
			m.formActive = true
			return m, m.form.Init()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case profilesMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.profiles = msg.data.Profiles
		m.active = msg.data.Active
		if m.selected >= len(m.profiles) {
			m.selected = 0
		}
		if name := m.selectedProfile(); name != "" {
			return m, m.fetchPlan(name)
		}

	case detectMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		if msg.data.Matched {
			m.detected = msg.data.Profile
			for i, name := range m.profiles {
				if name == m.detected {
					m.selected = i
				}
			}
			return m, m.fetchPlan(m.detected)
		}
		m.detected = ""
		m.status = "no profile matches the connected displays"

	case planMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.plan = msg.data
		m.planFor = msg.data.Result.Profile

	case applyMsg:
		m.applying = false
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.active = msg.data.Result.Profile
		m.status = fmt.Sprintf("applied %s: %d moved, %d failed",
			msg.data.Result.Profile, msg.data.Result.Moved(), msg.data.Result.Failed())
		return m, m.fetchPlan(msg.data.Result.Profile)

	case updateMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.status = "saved current arrangement as " + msg.profile
		return m, m.fetchProfiles()
	}

	return m, nil
}

func newUpdateForm(name *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("profile").
				Title("Profile Name").
				Description("Save the current monitor arrangement under this name").
				Value(name),
		),
	)
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.formActive = false
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.formActive = false
		name := strings.TrimSpace(m.formName)
		if name == "" {
			m.lastErr = "profile name is required"
			return m, nil
		}
		m.status = "saving " + name + "..."
		return m, m.updateProfile(name)
	}
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := titleStyle.Render("deskprof") + " " + m.statusLine()

	if m.formActive {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.form.View())
	}

	listWidth := 28
	planWidth := m.width - listWidth - 6
	if planWidth < 20 {
		planWidth = 20
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(listWidth).Render(m.profileList()),
		paneStyle.Width(planWidth).Render(m.planView()),
	)

	help := dimStyle.Render("enter apply · p plan · d detect · u save-current · r reload · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m model) statusLine() string {
	if m.lastErr != "" {
		return errStyle.Render(m.lastErr)
	}
	if m.status != "" {
		return okStyle.Render(m.status)
	}
	if m.detected != "" {
		return dimStyle.Render("detected: " + m.detected)
	}
	return ""
}

func (m model) profileList() string {
	if len(m.profiles) == 0 {
		return dimStyle.Render("no profiles configured")
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render("Profiles"))
	b.WriteString("\n")
	for i, name := range m.profiles {
		line := name
		var marks []string
		if name == m.detected {
			marks = append(marks, "detected")
		}
		if name == m.active {
			marks = append(marks, "active")
		}
		if len(marks) > 0 {
			line += " " + dimStyle.Render("("+strings.Join(marks, ", ")+")")
		}
		if i == m.selected {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) planView() string {
	if m.plan == nil {
		return dimStyle.Render("select a profile to preview its plan")
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render("Plan for " + m.planFor))
	b.WriteString("\n")
	for _, step := range m.plan.Result.Steps {
		outcome := string(step.Outcome)
		switch step.Outcome {
		case "moved":
			outcome = okStyle.Render(outcome)
		case "failed":
			outcome = errStyle.Render(outcome)
		default:
			outcome = dimStyle.Render(outcome)
		}

		line := fmt.Sprintf("%-28s %-12s %s", step.App, step.Placement, outcome)
		if step.Target != nil {
			line += dimStyle.Render(fmt.Sprintf("  → %.0f,%.0f", step.Target.X, step.Target.Y))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the TUI, blocking until the user quits. The daemon must be
// reachable; everything shown comes over its socket.
func Run() error {
	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		return fmt.Errorf("cannot reach daemon: %w", err)
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
