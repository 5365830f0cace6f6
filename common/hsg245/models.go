// Package hsg245 defines the wire model shared by the proxy and the API client
// for the four-part HSG245 incident investigation.
//
// The backend owns incident identity. Clients only ever carry the opaque
// incident_id returned by create_incident and thread it through the later parts.
package hsg245

import (
	"encoding/json"
	"strings"
)

// Envelope is the response wrapper returned by the backend for every JSON route.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Count   int             `json:"count,omitempty"`
	Error   string          `json:"error,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

// ActionRequest is the body the browser (or CLI) posts to the proxy.
type ActionRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// IncidentRef is the minimal payload for actions that only need the id.
type IncidentRef struct {
	IncidentID string `json:"incident_id"`
}

// AssessmentRequest is the add_assessment body: the id plus the Part 2 form.
type AssessmentRequest struct {
	IncidentID string `json:"incident_id"`
	AssessmentInput
}

// InvestigationRequest is the investigate body: the id plus the seven answers.
type InvestigationRequest struct {
	IncidentID string `json:"incident_id"`
	InvestigationInput
}

// Part 1: Overview

// OverviewInput is the Part 1 form.
type OverviewInput struct {
	ReportedBy        string `json:"reported_by" yaml:"reported_by"`
	DateTime          string `json:"date_time" yaml:"date_time"`
	EventCategory     string `json:"event_category" yaml:"event_category"`
	Description       string `json:"description" yaml:"description"`
	InjuryDescription string `json:"injury_description" yaml:"injury_description"`
	ForwardedTo       string `json:"forwarded_to" yaml:"forwarded_to"`
}

// Missing returns the json names of required fields that are blank.
func (in OverviewInput) Missing() []string {
	return missing(map[string]string{
		"reported_by":    in.ReportedBy,
		"date_time":      in.DateTime,
		"event_category": in.EventCategory,
		"description":    in.Description,
	}, "reported_by", "date_time", "event_category", "description")
}

// BriefDetails is the backend's structured summary of the narrative.
type BriefDetails struct {
	What              string `json:"what"`
	Where             string `json:"where"`
	When              string `json:"when"`
	Who               string `json:"who"`
	EmergencyMeasures string `json:"emergency_measures"`
}

// Overview is the backend's Part 1 classification.
type Overview struct {
	RefNo             string       `json:"ref_no,omitempty"`
	ReportedBy        string       `json:"reported_by,omitempty"`
	DateTime          string       `json:"date_time,omitempty"`
	IncidentType      string       `json:"incident_type,omitempty"`
	BriefDetails      BriefDetails `json:"brief_details,omitempty"`
	ForwardedTo       string       `json:"forwarded_to,omitempty"`
	ForwardedDateTime string       `json:"forwarded_date_time,omitempty"`
}

// CreateIncidentResult is the data of a successful create_incident call.
type CreateIncidentResult struct {
	IncidentID string   `json:"incident_id"`
	Part1      Overview `json:"part1"`
}

// Part 2: Assessment

// AssessmentInput is the Part 2 form. RiddorReportable is tri-state:
// "Yes", "No" or "Unsure" (let the backend decide).
type AssessmentInput struct {
	EventType        string `json:"event_type" yaml:"event_type"`
	ActualHarm       string `json:"actual_harm" yaml:"actual_harm"`
	RiddorReportable string `json:"riddor_reportable" yaml:"riddor_reportable"`
}

// Missing returns the json names of required fields that are blank.
func (in AssessmentInput) Missing() []string {
	return missing(map[string]string{
		"event_type":        in.EventType,
		"actual_harm":       in.ActualHarm,
		"riddor_reportable": in.RiddorReportable,
	}, "event_type", "actual_harm", "riddor_reportable")
}

// Assessment is the backend's Part 2 result, including the derived
// investigation level and priority.
type Assessment struct {
	TypeOfEvent                  string   `json:"type_of_event,omitempty"`
	ActualPotentialHarm          string   `json:"actual_potential_harm,omitempty"`
	RiddorReportable             string   `json:"riddor_reportable,omitempty"`
	RiddorDateReported           string   `json:"riddor_date_reported,omitempty"`
	AccidentBookEntry            string   `json:"accident_book_entry,omitempty"`
	AccidentBookRef              string   `json:"accident_book_ref,omitempty"`
	InvestigationLevel           string   `json:"investigation_level,omitempty"`
	InitialAssessmentBy          string   `json:"initial_assessment_by,omitempty"`
	AssessmentDate               string   `json:"assessment_date,omitempty"`
	FurtherInvestigationRequired string   `json:"further_investigation_required,omitempty"`
	Priority                     string   `json:"priority,omitempty"`
	InvestigationTeam            []string `json:"investigation_team,omitempty"`
}

// Part 3: Investigation

// InvestigationInput holds the seven questionnaire answers. Only the first
// three are required; the rest are sent as empty strings when blank.
type InvestigationInput struct {
	Location          string `json:"location" yaml:"location"`
	WhoInvolved       string `json:"who_involved" yaml:"who_involved"`
	HowHappened       string `json:"how_happened" yaml:"how_happened"`
	Activities        string `json:"activities" yaml:"activities"`
	WorkingConditions string `json:"working_conditions" yaml:"working_conditions"`
	SafetyProcedures  string `json:"safety_procedures" yaml:"safety_procedures"`
	Injuries          string `json:"injuries" yaml:"injuries"`
}

// Missing returns the json names of required fields that are blank.
func (in InvestigationInput) Missing() []string {
	return missing(map[string]string{
		"location":     in.Location,
		"who_involved": in.WhoInvolved,
		"how_happened": in.HowHappened,
	}, "location", "who_involved", "how_happened")
}

// Cause is one causal statement. The backend sends either a bare string or an
// object with a "cause" field; both decode into Text.
type Cause struct {
	Text     string `json:"cause"`
	Category string `json:"category,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (c *Cause) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Cause{Text: s}
		return nil
	}
	type plain Cause
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Cause(p)
	return nil
}

// Investigation is the backend's root-cause analysis. List order is whatever
// the backend returned.
type Investigation struct {
	IncidentSummary  string  `json:"incident_summary,omitempty"`
	AnalysisMethod   string  `json:"analysis_method,omitempty"`
	ImmediateCauses  []Cause `json:"immediate_causes"`
	UnderlyingCauses []Cause `json:"underlying_causes"`
	RootCauses       []Cause `json:"root_causes"`
}

// Part 4: Action plan

// MeasureCategory tags a control measure by time horizon.
type MeasureCategory string

const (
	MeasureImmediate MeasureCategory = "immediate"
	MeasureShortTerm MeasureCategory = "short_term"
	MeasureLongTerm  MeasureCategory = "long_term"
)

// MeasureCategories lists categories in display order.
var MeasureCategories = []MeasureCategory{MeasureImmediate, MeasureShortTerm, MeasureLongTerm}

// Label returns the heading used when rendering measures of this category.
func (m MeasureCategory) Label() string {
	switch m {
	case MeasureImmediate:
		return "Immediate Actions"
	case MeasureShortTerm:
		return "Short-term Actions (1-3 months)"
	case MeasureLongTerm:
		return "Long-term Actions (3-12 months)"
	default:
		return string(m)
	}
}

// ControlMeasure is one action-plan record.
type ControlMeasure struct {
	Measure     string          `json:"measure"`
	TargetDate  string          `json:"target_date"`
	Category    MeasureCategory `json:"category"`
	Responsible string          `json:"responsible"`
}

// ActionPlan is the backend's Part 4 result.
type ActionPlan struct {
	ControlMeasures []ControlMeasure `json:"control_measures"`
}

// ByCategory returns the measures tagged with cat, preserving order.
func (p ActionPlan) ByCategory(cat MeasureCategory) []ControlMeasure {
	var out []ControlMeasure
	for _, m := range p.ControlMeasures {
		if m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

// Incident is the full record returned by get_incident and list_incidents.
type Incident struct {
	IncidentID string         `json:"incident_id"`
	Status     string         `json:"status,omitempty"`
	CreatedAt  string         `json:"created_at,omitempty"`
	Part1      *Overview      `json:"part1,omitempty"`
	Part2      *Assessment    `json:"part2,omitempty"`
	Part3      *Investigation `json:"part3,omitempty"`
	Part4      *ActionPlan    `json:"part4,omitempty"`
}

func missing(values map[string]string, order ...string) []string {
	var out []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			out = append(out, name)
		}
	}
	return out
}
