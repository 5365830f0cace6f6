package messaging

import "strings"

// Incident lifecycle subjects follow hsg245.incidents.{stage}.
const (
	SubjectIncidentsPrefix = "hsg245.incidents"
	SubjectIncidentsAll    = SubjectIncidentsPrefix + ".>"
	SubjectExported        = SubjectIncidentsPrefix + ".exported"
)

// Header keys set on lifecycle events.
const (
	HeaderRequestID  = "X-Request-ID"
	HeaderIncidentID = "Hsg245-Incident-Id"
)

// IncidentSubject returns the subject for a lifecycle stage, e.g. hsg245.incidents.assessed.
func IncidentSubject(stage string) string {
	return SubjectIncidentsPrefix + "." + strings.ToLower(stage)
}
