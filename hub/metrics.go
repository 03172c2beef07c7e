package hub

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of hub counters.
type MetricsSnapshot struct {
	ActiveBackends     int64
	ActiveSessions     int64
	EventsRouted       int64
	EventsDropped      int64
	RequestsDispatched int64
	RequestsTimedOut   int64
}

// Metrics tracks hub activity with atomic counters.
type Metrics struct {
	activeBackends     atomic.Int64
	activeSessions     atomic.Int64
	eventsRouted       atomic.Int64
	eventsDropped      atomic.Int64
	requestsDispatched atomic.Int64
	requestsTimedOut   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordBackend(delta int) {
	m.activeBackends.Add(int64(delta))
}

func (m *Metrics) RecordSession(delta int) {
	m.activeSessions.Add(int64(delta))
}

func (m *Metrics) RecordEventRouted(delta int) {
	m.eventsRouted.Add(int64(delta))
}

func (m *Metrics) RecordEventDropped(delta int) {
	m.eventsDropped.Add(int64(delta))
}

func (m *Metrics) RecordRequestDispatched(delta int) {
	m.requestsDispatched.Add(int64(delta))
}

func (m *Metrics) RecordRequestTimedOut(delta int) {
	m.requestsTimedOut.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveBackends:     m.activeBackends.Load(),
		ActiveSessions:     m.activeSessions.Load(),
		EventsRouted:       m.eventsRouted.Load(),
		EventsDropped:      m.eventsDropped.Load(),
		RequestsDispatched: m.requestsDispatched.Load(),
		RequestsTimedOut:   m.requestsTimedOut.Load(),
	}
}
