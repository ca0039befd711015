package director

import (
	"slices"

	"github.com/openstudio/director-go/internal/conf"
)

// evaluate runs one decision tick: it walks the enabled rules in ascending
// priority order against the session's current feature snapshot and returns
// the first winning rule's decision, or a no-op when no rule wins.
//
// A rule wins when its condition holds, its confidence clears both the rule's
// own minimum and the session's sensitivity floor, and its action resolves to
// a concrete eligible camera. A rule whose action cannot resolve does not
// win; evaluation continues with the next rule.
func (s *session) evaluate(rules *RuleSnapshot) Decision {
	cams := s.cameras.Load()
	if cams == nil || len(cams.eligible) == 0 {
		return NoDecision()
	}

	floor := conf.ConfidenceFloor(s.sensitivity)

	for i := range rules.Rules {
		rule := &rules.Rules[i]

		if !s.conditionHolds(rule) {
			continue
		}

		confidence := s.ruleConfidence(rule)
		if confidence < rule.MinConfidence || confidence < floor {
			continue
		}

		target, ok := s.resolveAction(rule, cams)
		if !ok {
			continue
		}

		return Decision{
			Switch:          true,
			TargetCamera:    target.CameraID,
			Confidence:      confidence,
			Reason:          rule.Reason(),
			RuleID:          rule.RuleID,
			CooldownSeconds: rule.CooldownSeconds,
		}
	}

	return NoDecision()
}

// conditionHolds evaluates a rule's condition predicate against the current
// snapshot. All threshold comparisons are inclusive: a value exactly at the
// threshold satisfies it.
func (s *session) conditionHolds(rule *SwitchingRule) bool {
	snap := s.snapshot

	switch rule.Condition.Kind {
	case ConditionSpeakerChange:
		if !s.speakerDetectionEnabled || snap.audio == nil {
			return false
		}
		if snap.audio.SpeakerDetected == "" {
			return false
		}
		return snap.audio.Level >= s.audioThreshold

	case ConditionAudioLevel:
		if !s.audioLevelSwitching || snap.audio == nil {
			return false
		}
		return snap.audio.Level >= s.audioThreshold

	case ConditionEngagement:
		if !s.engagementSwitching || len(snap.engagement) == 0 {
			return false
		}
		for id := range snap.engagement {
			sample := snap.engagement[id]
			if engagementComposite(s.weights, &sample) >= s.engagementThreshold {
				return true
			}
		}
		return false

	case ConditionSilence:
		if !s.fallbackEnabled || snap.audio == nil {
			return false
		}
		threshold := rule.Condition.Threshold
		if threshold <= 0 {
			threshold = s.silenceFallbackSeconds
		}
		return snap.audio.SilenceDuration >= threshold

	default:
		return false
	}
}

// ruleConfidence computes the weighted confidence for a matched rule.
func (s *session) ruleConfidence(rule *SwitchingRule) float64 {
	snap := s.snapshot
	weights := s.weights

	switch rule.Condition.Kind {
	case ConditionSpeakerChange:
		return speakerConfidence(weights, snap.audio)
	case ConditionAudioLevel:
		return audioLevelConfidence(weights, snap.audio)
	case ConditionEngagement:
		_, best := s.topEngagedParticipant()
		return best
	case ConditionSilence:
		return silenceConfidence(weights, snap.audio)
	default:
		return 0
	}
}

// resolveAction maps a winning rule's action to a concrete eligible camera,
// applying the deterministic tie-break order (priority, then camera id).
func (s *session) resolveAction(rule *SwitchingRule, cams *cameraSet) (CameraConfig, bool) {
	switch rule.Action.Kind {
	case ActionSwitchToSpeaker:
		if s.snapshot.audio == nil {
			return CameraConfig{}, false
		}
		return cams.resolveSubject(s.snapshot.audio.SpeakerDetected)

	case ActionSwitchToHighestEngagement:
		participants, _ := s.topEngagedParticipant()
		var chosen CameraConfig
		found := false
		for _, id := range participants {
			cam, ok := cams.resolveSubject(id)
			if !ok {
				continue
			}
			if !found || compareCameras(cam, chosen) < 0 {
				chosen = cam
				found = true
			}
		}
		return chosen, found

	case ActionSwitchToFixedCamera:
		return cams.resolveFixed(rule.Action.TargetCamera)

	default:
		return CameraConfig{}, false
	}
}

// topEngagedParticipant returns the participants tied at the highest
// engagement composite that clears the session threshold, plus that score.
// Participant ids are returned sorted so the result is deterministic.
func (s *session) topEngagedParticipant() ([]string, float64) {
	weights := s.weights
	best := -1.0
	var top []string

	ids := make([]string, 0, len(s.snapshot.engagement))
	for id := range s.snapshot.engagement {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		sample := s.snapshot.engagement[id]
		score := engagementComposite(weights, &sample)
		if score < s.engagementThreshold {
			continue
		}
		switch {
		case score > best:
			best = score
			top = []string{id}
		case score == best:
			top = append(top, id)
		}
	}
	if best < 0 {
		return nil, 0
	}
	return top, best
}
