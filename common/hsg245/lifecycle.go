package hsg245

import "time"

// Stage is how far an incident has progressed through the investigation.
// Stages are ordered; a recorded stage never moves backwards.
type Stage int

const (
	StageUnknown Stage = iota
	StageCreated
	StageAssessed
	StageInvestigated
	StageCompleted
)

var stageNames = map[Stage]string{
	StageUnknown:      "unknown",
	StageCreated:      "created",
	StageAssessed:     "assessed",
	StageInvestigated: "investigated",
	StageCompleted:    "completed",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// Label is the human-readable status shown next to an incident.
func (s Stage) Label() string {
	switch s {
	case StageCreated:
		return "Created - Awaiting Assessment"
	case StageAssessed:
		return "Assessed - Awaiting Investigation"
	case StageInvestigated:
		return "Investigated - Awaiting Action Plan"
	case StageCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// ParseStage converts a stage name back to a Stage. Unknown names map to StageUnknown.
func ParseStage(name string) Stage {
	for s, n := range stageNames {
		if n == name {
			return s
		}
	}
	return StageUnknown
}

// StatusLabel maps a backend status string to its display label.
// "error" is a backend-only status with no Stage.
func StatusLabel(status string) string {
	if status == "error" {
		return "Error"
	}
	if s := ParseStage(status); s != StageUnknown {
		return s.Label()
	}
	return status
}

// StageAfter returns the stage an incident reaches when action succeeds.
// ok is false for read-only actions (get, list, pdf export).
func StageAfter(action Action) (Stage, bool) {
	switch action {
	case ActionCreateIncident:
		return StageCreated, true
	case ActionAddAssessment:
		return StageAssessed, true
	case ActionInvestigate:
		return StageInvestigated, true
	case ActionGenerateActionPlan:
		return StageCompleted, true
	default:
		return StageUnknown, false
	}
}

// Lifecycle is the proxy's view of one incident.
type Lifecycle struct {
	IncidentID string    `json:"incident_id"`
	Stage      string    `json:"stage"`
	Label      string    `json:"label"`
	UpdatedAt  time.Time `json:"updated_at"`
	ExportedAt time.Time `json:"exported_at,omitzero"`
	Exports    int       `json:"exports"`
}

// LifecycleEvent is published whenever the proxy observes a stage change or export.
type LifecycleEvent struct {
	IncidentID string    `json:"incident_id"`
	Action     Action    `json:"action"`
	Stage      string    `json:"stage"`
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
