// Package lifecycle records how far each incident has progressed, as observed
// by the proxy, and fans out stage changes as events.
//
// The backend remains the source of truth for incident data. This is a
// best-effort view: recording never fails a proxied request.
package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// ErrNotFound is returned when the proxy has never seen an incident.
var ErrNotFound = errors.New("incident not tracked")

// Store persists lifecycle records. Advance never moves a stage backwards.
type Store interface {
	// Advance raises the incident to stage if it is further than the recorded
	// one. changed reports whether a write happened.
	Advance(ctx context.Context, incidentID string, stage hsg245.Stage, at time.Time) (changed bool, err error)
	// MarkExported records a PDF export without touching the stage.
	MarkExported(ctx context.Context, incidentID string, at time.Time) error
	Get(ctx context.Context, incidentID string) (*hsg245.Lifecycle, error)
	// List returns up to limit records, most recently updated first.
	List(ctx context.Context, limit int) ([]hsg245.Lifecycle, error)
	Close() error
}

type record struct {
	stage      hsg245.Stage
	updatedAt  time.Time
	exportedAt time.Time
	exports    int
	touched    time.Time
}

func (r record) toLifecycle(id string) hsg245.Lifecycle {
	return hsg245.Lifecycle{
		IncidentID: id,
		Stage:      r.stage.String(),
		Label:      r.stage.Label(),
		UpdatedAt:  r.updatedAt,
		ExportedAt: r.exportedAt,
		Exports:    r.exports,
	}
}

// maxSweepInterval caps how long expired memory records linger before removal.
const maxSweepInterval = time.Minute

// MemoryStore keeps records in process. Used when Redis is disabled.
// Like RedisStore, a record untouched for ttl expires; zero keeps it forever.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*record
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{records: make(map[string]*record), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Advance(_ context.Context, incidentID string, stage hsg245.Stage, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	rec := m.writable(incidentID, now)
	if stage <= rec.stage {
		return false, nil
	}
	rec.stage = stage
	rec.updatedAt = at
	rec.touched = now
	return true, nil
}

func (m *MemoryStore) MarkExported(_ context.Context, incidentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	rec := m.writable(incidentID, now)
	rec.touched = now
	rec.exportedAt = at
	rec.exports++
	if at.After(rec.updatedAt) {
		rec.updatedAt = at
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, incidentID string) (*hsg245.Lifecycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[incidentID]
	if !ok || m.expired(rec, m.now()) {
		return nil, ErrNotFound
	}
	lc := rec.toLifecycle(incidentID)
	return &lc, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]hsg245.Lifecycle, error) {
	m.mu.RLock()
	now := m.now()
	out := make([]hsg245.Lifecycle, 0, len(m.records))
	for id, rec := range m.records {
		if m.expired(rec, now) {
			continue
		}
		out = append(out, rec.toLifecycle(id))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].IncidentID < out[j].IncidentID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// writable returns the live record for id, replacing an expired one.
func (m *MemoryStore) writable(id string, now time.Time) *record {
	rec, ok := m.records[id]
	if !ok || m.expired(rec, now) {
		rec = &record{}
		m.records[id] = rec
	}
	return rec
}

func (m *MemoryStore) expired(rec *record, now time.Time) bool {
	return m.ttl > 0 && now.Sub(rec.touched) >= m.ttl
}

// sweep drops expired records, at most once per sweep interval.
func (m *MemoryStore) sweep(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < min(m.ttl, maxSweepInterval) {
		return
	}
	m.lastSweep = now
	for id, rec := range m.records {
		if m.expired(rec, now) {
			delete(m.records, id)
		}
	}
}
