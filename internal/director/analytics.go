package director

import (
	"sync"
	"time"
)

// sessionStats maintains the running analytics for one session, updated
// incrementally per switch event (O(1) per event, no recomputation). The
// loop goroutine writes; analytics queries read concurrently, so access is
// guarded by a read-write mutex.
type sessionStats struct {
	mu sync.RWMutex

	sessionID string

	totalSwitches     int64
	attemptedSwitches int64
	failedSwitches    int64
	switchesByReason  map[TriggerReason]int64
	confidenceSum     float64

	liveCamera  string
	liveSince   time.Time
	cameraDwell map[string]time.Duration

	events []SwitchEvent // append-only log, backs getSessionEvents
}

func newSessionStats(sessionID string) *sessionStats {
	return &sessionStats{
		sessionID:        sessionID,
		switchesByReason: make(map[TriggerReason]int64),
		cameraDwell:      make(map[string]time.Duration),
	}
}

// record folds one switch event into the aggregates.
func (st *sessionStats) record(event *SwitchEvent) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.events = append(st.events, *event)
	st.attemptedSwitches++

	if !event.Success {
		st.failedSwitches++
		return
	}

	st.totalSwitches++
	st.switchesByReason[event.TriggerReason]++
	st.confidenceSum += event.ConfidenceScore

	// Close out the dwell interval of the camera that just went off-live.
	if st.liveCamera != "" {
		st.cameraDwell[st.liveCamera] += event.Timestamp.Sub(st.liveSince)
	}
	st.liveCamera = event.TargetCamera
	st.liveSince = event.Timestamp
}

// currentLiveCamera returns the camera currently live, empty before the
// first successful switch.
func (st *sessionStats) currentLiveCamera() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.liveCamera
}

// analytics returns a snapshot of the aggregates. The live camera's open
// dwell interval is included up to the given time.
func (st *sessionStats) analytics(now time.Time) SessionAnalytics {
	st.mu.RLock()
	defer st.mu.RUnlock()

	byReason := make(map[TriggerReason]int64, len(st.switchesByReason))
	for reason, count := range st.switchesByReason {
		byReason[reason] = count
	}

	dwell := make(map[string]time.Duration, len(st.cameraDwell)+1)
	for camera, d := range st.cameraDwell {
		dwell[camera] = d
	}
	if st.liveCamera != "" && now.After(st.liveSince) {
		dwell[st.liveCamera] += now.Sub(st.liveSince)
	}

	avgConfidence := 0.0
	if st.totalSwitches > 0 {
		avgConfidence = st.confidenceSum / float64(st.totalSwitches)
	}
	successRate := 0.0
	if st.attemptedSwitches > 0 {
		successRate = float64(st.totalSwitches) / float64(st.attemptedSwitches)
	}

	return SessionAnalytics{
		SessionID:         st.sessionID,
		TotalSwitches:     st.totalSwitches,
		AttemptedSwitches: st.attemptedSwitches,
		FailedSwitches:    st.failedSwitches,
		SwitchesByReason:  byReason,
		AverageConfidence: avgConfidence,
		SuccessRate:       successRate,
		CameraDwell:       dwell,
	}
}

// filteredEvents returns a filtered, paginated copy of the event log in
// chronological order.
func (st *sessionStats) filteredEvents(filter EventFilter) []SwitchEvent {
	st.mu.RLock()
	defer st.mu.RUnlock()

	matched := make([]SwitchEvent, 0, len(st.events))
	for i := range st.events {
		if filter.Reason != "" && st.events[i].TriggerReason != filter.Reason {
			continue
		}
		matched = append(matched, st.events[i])
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []SwitchEvent{}
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}

// finalize closes the live camera's dwell interval at session stop.
func (st *sessionStats) finalize(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.liveCamera != "" && now.After(st.liveSince) {
		st.cameraDwell[st.liveCamera] += now.Sub(st.liveSince)
		st.liveSince = now
	}
}
