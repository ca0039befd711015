package director

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/openstudio/director-go/internal/conf"
)

// requestKind identifies the work items flowing through a session's inbox.
type requestKind int

const (
	requestAudio requestKind = iota
	requestEngagement
	requestManual
)

// request is one unit of work for the session loop. Every request carries a
// reply channel so ingestion stays synchronous for the caller while the loop
// guarantees strict per-session FIFO processing.
type request struct {
	kind       requestKind
	audio      *AudioSample
	engagement *EngagementSample
	manual     *ManualSwitchRequest
	reply      chan response
}

type response struct {
	analysis *SignalAnalysis
	result   *SwitchResult
	err      error
}

// session owns all mutable state for one live interview: the camera set, the
// feature snapshot, the live camera and the switch history. State is mutated
// only by the session's own loop goroutine, so the hot path needs no locks
// beyond the inbox channel itself.
type session struct {
	id          string
	interviewID string
	createdAt   time.Time

	mode        SessionMode
	sensitivity string

	switchDelay            float64
	audioThreshold         float64
	engagementThreshold    float64
	silenceFallbackSeconds float64
	transitionType         string

	speakerDetectionEnabled bool
	audioLevelSwitching     bool
	engagementSwitching     bool
	fallbackEnabled         bool
	transitionEffects       bool

	weights *conf.ConfidenceWeights

	// cameras is swapped atomically by configureCameras; the loop reads the
	// pointer once per tick so a mid-tick swap is never visible.
	cameras atomic.Pointer[cameraSet]

	// Owned by the loop goroutine.
	snapshot       *featureSnapshot
	liveCamera     string
	liveSince      time.Time
	lastSwitchTime time.Time

	stats *sessionStats

	inbox   chan request
	stopCh  chan struct{}
	done    chan struct{}
	stopped atomic.Bool

	stopOnce sync.Once
}

// newSession builds a session from validated options merged over defaults.
func newSession(id, interviewID string, opts *SessionOptions, defaults *conf.SessionDefaults, weights *conf.ConfidenceWeights, queueSize int, now time.Time) *session {
	s := &session{
		id:          id,
		interviewID: interviewID,
		createdAt:   now,

		mode:        SessionMode(defaults.Mode),
		sensitivity: defaults.Sensitivity,

		switchDelay:            defaults.SwitchDelay,
		audioThreshold:         defaults.AudioThreshold,
		engagementThreshold:    defaults.EngagementThreshold,
		silenceFallbackSeconds: defaults.SilenceFallbackSeconds,
		transitionType:         defaults.TransitionType,

		speakerDetectionEnabled: defaults.SpeakerDetectionEnabled,
		audioLevelSwitching:     defaults.AudioLevelSwitching,
		engagementSwitching:     defaults.EngagementSwitching,
		fallbackEnabled:         defaults.FallbackEnabled,
		transitionEffects:       defaults.TransitionEffects,

		weights: weights,

		snapshot: newFeatureSnapshot(),
		stats:    newSessionStats(id),

		inbox:  make(chan request, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	if opts != nil {
		if opts.Mode != "" {
			s.mode = opts.Mode
		}
		if opts.Sensitivity != "" {
			s.sensitivity = opts.Sensitivity
		}
		if opts.SwitchDelay != nil {
			s.switchDelay = *opts.SwitchDelay
		}
		if opts.AudioThreshold != nil {
			s.audioThreshold = *opts.AudioThreshold
		}
		if opts.EngagementThreshold != nil {
			s.engagementThreshold = *opts.EngagementThreshold
		}
		if opts.TransitionType != "" {
			s.transitionType = opts.TransitionType
		}
		if opts.SpeakerDetectionEnabled != nil {
			s.speakerDetectionEnabled = *opts.SpeakerDetectionEnabled
		}
		if opts.AudioLevelSwitching != nil {
			s.audioLevelSwitching = *opts.AudioLevelSwitching
		}
		if opts.EngagementSwitching != nil {
			s.engagementSwitching = *opts.EngagementSwitching
		}
		if opts.FallbackEnabled != nil {
			s.fallbackEnabled = *opts.FallbackEnabled
		}
		if opts.TransitionEffects != nil {
			s.transitionEffects = *opts.TransitionEffects
		}
	}

	return s
}

// status returns the session lifecycle state.
func (s *session) status() SessionStatus {
	if s.stopped.Load() {
		return StatusStopped
	}
	return StatusActive
}

// info returns a read-only description of the session. LiveCamera reflects
// the last value published by the loop and may trail an in-flight switch by
// one tick.
func (s *session) info() SessionInfo {
	return SessionInfo{
		SessionID:           s.id,
		InterviewID:         s.interviewID,
		Mode:                s.mode,
		Status:              s.status(),
		Sensitivity:         s.sensitivity,
		SwitchDelay:         s.switchDelay,
		AudioThreshold:      s.audioThreshold,
		EngagementThreshold: s.engagementThreshold,
		LiveCamera:          s.stats.currentLiveCamera(),
		CreatedAt:           s.createdAt,
	}
}

// submit places a request on the session's inbox and waits for the loop's
// reply. It fails with ErrSessionInactive once the session is stopping, and
// never blocks past the stop signal, so callers cannot hang on a dead
// session.
func (s *session) submit(req request) response {
	if s.stopped.Load() {
		return response{err: ErrSessionInactive}
	}
	select {
	case s.inbox <- req:
	case <-s.stopCh:
		return response{err: ErrSessionInactive}
	}
	select {
	case resp := <-req.reply:
		return resp
	case <-s.done:
		return response{err: ErrSessionInactive}
	}
}

// trySubmit is the non-blocking variant used for sample ingestion. When the
// inbox is full the sample is dropped rather than delaying the producer; the
// second return value reports whether the request was accepted.
func (s *session) trySubmit(req request) (response, bool) {
	if s.stopped.Load() {
		return response{err: ErrSessionInactive}, true
	}
	select {
	case s.inbox <- req:
	case <-s.stopCh:
		return response{err: ErrSessionInactive}, true
	default:
		return response{}, false
	}
	select {
	case resp := <-req.reply:
		return resp, true
	case <-s.done:
		return response{err: ErrSessionInactive}, true
	}
}

// stop signals the loop to exit and waits for it to drain. Queued samples
// are discarded; the in-flight request, if any, completes first so no switch
// is ever left half-applied.
func (s *session) stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
		<-s.done
	})
}
