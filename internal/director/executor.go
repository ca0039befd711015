package director

import (
	"time"

	"github.com/google/uuid"
)

// SwitchSink executes the abstract "switch to camera X" command against the
// downstream video system. Implementations must be safe for concurrent use
// across sessions. The engine ships a loopback sink for deployments where
// switch commands are consumed from the event stream instead.
type SwitchSink interface {
	// Switch applies the camera switch. A returned error marks the target
	// unreachable and triggers the executor's single retry.
	Switch(sessionID string, camera CameraConfig, transition string) error
}

// LoopbackSink accepts every switch without side effects.
type LoopbackSink struct{}

func (LoopbackSink) Switch(string, CameraConfig, string) error { return nil }

// switchExecutor turns decisions into applied state changes, subject to the
// anti-flapping policy: a switch is rejected while the cooldown gate is
// closed, and switching to the already-live camera is an eventless no-op.
type switchExecutor struct {
	sink                 SwitchSink
	manualCooldownExempt bool
	now                  func() time.Time
	newEventID           func() string
}

func newSwitchExecutor(sink SwitchSink, manualCooldownExempt bool, now func() time.Time) *switchExecutor {
	if sink == nil {
		sink = LoopbackSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &switchExecutor{
		sink:                 sink,
		manualCooldownExempt: manualCooldownExempt,
		now:                  now,
		newEventID:           uuid.NewString,
	}
}

// apply executes a decision for the session. It returns the recorded switch
// event, or nil when the decision was a no-op (no rule won, or the target is
// already live). The session's live camera only changes on success.
func (ex *switchExecutor) apply(s *session, decision Decision, switchType SwitchType) *SwitchEvent {
	if !decision.Switch {
		return nil
	}

	// Idempotence: the target is already live, nothing to do, no event.
	if decision.TargetCamera == s.liveCamera {
		return nil
	}

	now := ex.now()

	if !ex.cooldownOpen(s, &decision, switchType, now) {
		event := ex.buildEvent(s, &decision, switchType, now)
		event.Success = false
		event.FailureReason = FailureCooldownActive
		s.stats.record(event)
		return event
	}

	cams := s.cameras.Load()
	target, ok := cams.byID(decision.TargetCamera)
	if !ok {
		event := ex.buildEvent(s, &decision, switchType, now)
		event.Success = false
		event.FailureReason = FailureTargetUnreachable
		s.stats.record(event)
		return event
	}

	applied, retried := ex.execute(s, cams, target, transitionFor(s, &decision))
	event := ex.buildEvent(s, &decision, switchType, now)

	if applied == nil {
		// Both the target and the retry candidate failed; the previously
		// live camera stays untouched.
		event.Success = false
		event.FailureReason = FailureTargetUnreachable
		s.stats.record(event)
		getLogger().Warn("switch target unreachable",
			"session_id", s.id,
			"target_camera", decision.TargetCamera,
			"trigger_reason", string(decision.Reason))
		return event
	}

	if retried {
		event.TargetCamera = applied.CameraID
		if event.Metadata == nil {
			event.Metadata = make(map[string]string)
		}
		event.Metadata["requested_camera"] = decision.TargetCamera
		event.Metadata["retried"] = "true"
	}
	event.Success = true

	s.liveCamera = applied.CameraID
	s.liveSince = now
	s.lastSwitchTime = now
	s.stats.record(event)

	return event
}

// cooldownOpen checks the anti-flapping gate: the elapsed time since the
// last switch must reach max(session switch delay, rule cooldown). Manual
// switches bypass the gate when the exemption is configured.
func (ex *switchExecutor) cooldownOpen(s *session, decision *Decision, switchType SwitchType, now time.Time) bool {
	if switchType == SwitchTypeManual && ex.manualCooldownExempt {
		return true
	}
	if s.lastSwitchTime.IsZero() {
		return true
	}

	gate := s.switchDelay
	if decision.CooldownSeconds > gate {
		gate = decision.CooldownSeconds
	}
	return now.Sub(s.lastSwitchTime) >= time.Duration(gate*float64(time.Second))
}

// execute runs the switch against the sink, retrying once against the next
// eligible camera on failure. It returns the camera that went live (nil if
// none) and whether the retry target was used.
func (ex *switchExecutor) execute(s *session, cams *cameraSet, target CameraConfig, transition string) (*CameraConfig, bool) {
	if err := ex.sink.Switch(s.id, target, transition); err == nil {
		return &target, false
	} else {
		getLogger().Warn("switch execution failed, retrying next camera",
			"session_id", s.id,
			"camera_id", target.CameraID,
			"error", err)
	}

	retry, ok := cams.nextEligible(target.CameraID, s.liveCamera)
	if !ok {
		return nil, false
	}
	if err := ex.sink.Switch(s.id, retry, transition); err != nil {
		return nil, false
	}
	return &retry, true
}

// transitionFor picks the transition effect for a switch: the session default,
// forced to a hard cut when transition effects are disabled, overridden by an
// explicit per-decision transition.
func transitionFor(s *session, decision *Decision) string {
	transition := s.transitionType
	if !s.transitionEffects {
		transition = "cut"
	}
	if decision.Transition != "" {
		transition = decision.Transition
	}
	return transition
}

// buildEvent assembles a switch event for the decision, capturing the signal
// levels behind it.
func (ex *switchExecutor) buildEvent(s *session, decision *Decision, switchType SwitchType, now time.Time) *SwitchEvent {
	engagementScore := 0.0
	if participants, best := s.topEngagedParticipant(); len(participants) > 0 {
		engagementScore = best
	}

	return &SwitchEvent{
		EventID:         ex.newEventID(),
		SessionID:       s.id,
		Timestamp:       now,
		TargetCamera:    decision.TargetCamera,
		SwitchType:      switchType,
		TriggerReason:   decision.Reason,
		ConfidenceScore: decision.Confidence,
		AudioLevel:      s.snapshot.audioLevel(),
		EngagementScore: engagementScore,
		TransitionType:  transitionFor(s, decision),
	}
}
