package mcp

// DetectProfileInput is the input for the detect_profile tool.
type DetectProfileInput struct{}

// DetectProfileOutput is the output for the detect_profile tool.
type DetectProfileOutput struct {
	Profile string `json:"profile"`
	Matched bool   `json:"matched"`
}

// ListProfilesInput is the input for the list_profiles tool.
type ListProfilesInput struct{}

// ProfileSummary describes one configured profile.
type ProfileSummary struct {
	Name        string   `json:"name"`
	Resolutions []string `json:"resolutions"`
}

// ListProfilesOutput is the output for the list_profiles tool.
type ListProfilesOutput struct {
	Profiles []ProfileSummary `json:"profiles"`
}

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct {
	Profile string `json:"profile,omitempty" jsonschema:"Profile name to resolve workspace role tags against (default: detected profile)"`
}

// MonitorSummary describes one connected display in internal coordinates.
type MonitorSummary struct {
	Name       string  `json:"name"`
	Resolution string  `json:"resolution"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	BuiltIn    bool    `json:"built_in"`
	Workspace  bool    `json:"workspace"`
}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors []MonitorSummary `json:"monitors"`
}

// GeneratePlanInput is the input for the generate_plan tool.
type GeneratePlanInput struct {
	Profile string `json:"profile,omitempty" jsonschema:"Profile to plan for (default: detect from the connected displays)"`
}

// PlanStep is one per-application entry of a plan or apply run.
type PlanStep struct {
	App       string `json:"app"`
	Display   string `json:"display"`
	Placement string `json:"placement"`
	Outcome   string `json:"outcome"`
	Target    string `json:"target,omitempty"`
}

// GeneratePlanOutput is the output for the generate_plan tool.
type GeneratePlanOutput struct {
	Profile string     `json:"profile"`
	Steps   []PlanStep `json:"steps"`
}

// ApplyProfileInput is the input for the apply_profile tool.
type ApplyProfileInput struct {
	Profile string `json:"profile,omitempty" jsonschema:"Profile to apply (default: detect from the connected displays)"`
}

// ApplyProfileOutput is the output for the apply_profile tool.
type ApplyProfileOutput struct {
	Profile string     `json:"profile"`
	Moved   int        `json:"moved"`
	Failed  int        `json:"failed"`
	Steps   []PlanStep `json:"steps"`
}

// UpdateProfileInput is the input for the update_profile tool.
type UpdateProfileInput struct {
	Profile string `json:"profile" jsonschema:"required,Profile name to save the current monitor arrangement under"`
}

// UpdateProfileOutput is the output for the update_profile tool.
type UpdateProfileOutput struct {
	Profile     string   `json:"profile"`
	Resolutions []string `json:"resolutions"`
}
