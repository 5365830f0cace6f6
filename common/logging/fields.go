package logging

import (
	"log/slog"
	"time"
)

// Field names shared by the proxy and CLI.
const (
	FieldService    = "service"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldAction     = "action"
	FieldIncidentID = "incident_id"
	FieldBackendURL = "backend_url"
	FieldStage      = "stage"
)

func Service(name string) slog.Attr { return slog.String(FieldService, name) }

func Method(method string) slog.Attr { return slog.String(FieldMethod, method) }

func Path(path string) slog.Attr { return slog.String(FieldPath, path) }

func Status(code int) slog.Attr { return slog.Int(FieldStatus, code) }

// Duration records d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns an attribute for err. A nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func Action(action string) slog.Attr { return slog.String(FieldAction, action) }

func IncidentID(id string) slog.Attr { return slog.String(FieldIncidentID, id) }

func BackendURL(url string) slog.Attr { return slog.String(FieldBackendURL, url) }

func Stage(stage string) slog.Attr { return slog.String(FieldStage, stage) }
