package lifecycle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/safetyline/hsg245-stack/common/hsg245"
	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/common/messaging"
	"github.com/safetyline/hsg245-stack/common/middleware"
	"github.com/safetyline/hsg245-stack/proxy/internal/metrics"
)

// Tracker turns successful proxied actions into lifecycle records and events.
// A nil publisher disables events.
type Tracker struct {
	store     Store
	publisher messaging.Publisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewTracker(store Store, publisher messaging.Publisher, logger *logging.Logger) *Tracker {
	return &Tracker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Store exposes the underlying store for read handlers.
func (t *Tracker) Store() Store {
	return t.store
}

// Observe records the effect of a successful action on incidentID. Failures
// are logged and counted, never returned.
func (t *Tracker) Observe(ctx context.Context, action hsg245.Action, incidentID string) {
	if t == nil || incidentID == "" {
		return
	}
	at := t.now()

	if action == hsg245.ActionGeneratePDF {
		if err := t.store.MarkExported(ctx, incidentID, at); err != nil {
			t.fail(ctx, "failed to record export", incidentID, err)
			return
		}
		t.publish(ctx, action, incidentID, "exported", at)
		return
	}

	stage, ok := hsg245.StageAfter(action)
	if !ok {
		return
	}

	changed, err := t.store.Advance(ctx, incidentID, stage, at)
	if err != nil {
		t.fail(ctx, "failed to record lifecycle", incidentID, err)
		return
	}
	if !changed {
		return
	}

	metrics.LifecycleTransitions.WithLabelValues(stage.String()).Inc()
	t.logger.InfoContext(ctx, "incident advanced",
		logging.IncidentID(incidentID),
		logging.Stage(stage.String()))
	t.publish(ctx, action, incidentID, stage.String(), at)
}

func (t *Tracker) publish(ctx context.Context, action hsg245.Action, incidentID, stage string, at time.Time) {
	if t.publisher == nil {
		return
	}

	reqID := middleware.GetRequestID(ctx)
	data, err := json.Marshal(hsg245.LifecycleEvent{
		IncidentID: incidentID,
		Action:     action,
		Stage:      stage,
		RequestID:  reqID,
		Timestamp:  at,
	})
	if err != nil {
		t.fail(ctx, "failed to encode lifecycle event", incidentID, err)
		return
	}

	msg := &messaging.Message{
		Subject: messaging.IncidentSubject(stage),
		Data:    data,
		Metadata: map[string]string{
			messaging.HeaderIncidentID: incidentID,
		},
	}
	if reqID != "" {
		msg.Metadata[messaging.HeaderRequestID] = reqID
	}

	if err := t.publisher.PublishMsg(ctx, msg); err != nil {
		t.fail(ctx, "failed to publish lifecycle event", incidentID, err)
	}
}

func (t *Tracker) fail(ctx context.Context, msg, incidentID string, err error) {
	metrics.LifecycleErrors.Inc()
	t.logger.WarnContext(ctx, msg, logging.IncidentID(incidentID), logging.Error(err))
}
