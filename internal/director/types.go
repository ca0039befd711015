// Package director implements the automatic camera-switching decision engine
// for live multi-camera interview sessions. It fuses incoming audio and
// engagement samples with a priority-ordered rule set to decide which camera
// should be live, and applies switches subject to anti-flapping policy.
package director

import (
	"time"
)

// SessionMode controls whether the engine switches automatically.
type SessionMode string

const (
	ModeAuto   SessionMode = "auto"
	ModeManual SessionMode = "manual"
	ModeHybrid SessionMode = "hybrid"
)

// SessionStatus is the lifecycle state of a switching session.
type SessionStatus string

const (
	StatusActive  SessionStatus = "active"
	StatusStopped SessionStatus = "stopped"
)

// SwitchType distinguishes rule-driven switches from operator overrides.
type SwitchType string

const (
	SwitchTypeAuto   SwitchType = "auto"
	SwitchTypeManual SwitchType = "manual"
)

// TriggerReason is the category of signal that caused a switch.
type TriggerReason string

const (
	ReasonSpeakerChange   TriggerReason = "speaker_change"
	ReasonAudioLevel      TriggerReason = "audio_level"
	ReasonEngagement      TriggerReason = "engagement"
	ReasonSilenceFallback TriggerReason = "silence_fallback"
	ReasonManual          TriggerReason = "manual"
)

// Failure reasons recorded on unsuccessful switch events.
const (
	FailureCooldownActive    = "cooldown_active"
	FailureTargetUnreachable = "switch_target_unreachable"
)

// CameraConfig describes one camera endpoint configured for a session.
type CameraConfig struct {
	CameraID          string `json:"camera_id"`
	DeviceID          string `json:"device_id"`
	Name              string `json:"name"`
	Position          string `json:"position"` // free-form label, e.g. host/guest/wide
	Priority          int    `json:"priority"` // lower value wins tie-breaks
	AutoSwitchEnabled bool   `json:"auto_switch_enabled"`
}

// AudioSample is one normalized audio feature sample. Level, clarity and
// background noise are normalized to [0, 1].
type AudioSample struct {
	Timestamp       time.Time `json:"timestamp"`
	Level           float64   `json:"level"`
	Frequency       float64   `json:"frequency"`
	Clarity         float64   `json:"clarity"`
	BackgroundNoise float64   `json:"background_noise"`
	SpeakerDetected string    `json:"speaker_detected,omitempty"` // speaker or camera hint
	SilenceDuration float64   `json:"silence_duration,omitempty"` // seconds of continuous near-zero level
}

// EngagementSample is one normalized engagement feature sample for a single
// participant. All activity scores are normalized to [0, 1].
type EngagementSample struct {
	Timestamp        time.Time `json:"timestamp"`
	ParticipantID    string    `json:"participant_id"`
	Attention        float64   `json:"attention"`
	Interaction      float64   `json:"interaction"`
	SpeechActivity   float64   `json:"speech_activity"`
	GestureActivity  float64   `json:"gesture_activity"`
	FacialExpression string    `json:"facial_expression,omitempty"`
	Emotion          string    `json:"emotion,omitempty"`
}

// ConditionKind is the closed set of rule condition predicates.
type ConditionKind string

const (
	ConditionSpeakerChange ConditionKind = "speaker_change"
	ConditionAudioLevel    ConditionKind = "audio_level"
	ConditionEngagement    ConditionKind = "engagement"
	ConditionSilence       ConditionKind = "silence"
)

// Condition is a structured predicate over the current feature snapshot.
// Threshold is only used by kinds that need a parameter beyond the session
// thresholds, currently the silence duration in seconds.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Threshold float64       `json:"threshold,omitempty"`
}

// ActionKind is the closed set of target-selection strategies.
type ActionKind string

const (
	ActionSwitchToSpeaker           ActionKind = "switch_to_speaker"
	ActionSwitchToHighestEngagement ActionKind = "switch_to_highest_engagement"
	ActionSwitchToFixedCamera       ActionKind = "switch_to_fixed_camera"
)

// Action describes how a winning rule resolves its target camera.
// TargetCamera is only used by ActionSwitchToFixedCamera; when empty the
// fallback resolution prefers a camera positioned "wide".
type Action struct {
	Kind         ActionKind `json:"kind"`
	TargetCamera string     `json:"target_camera,omitempty"`
}

// SwitchingRule is one versioned switching rule. Rules are evaluated in
// ascending priority order; the first rule whose condition holds and whose
// confidence clears both its own floor and the session's sensitivity floor
// wins the tick.
type SwitchingRule struct {
	RuleID          string    `json:"rule_id"`
	Priority        int       `json:"priority"`
	Enabled         bool      `json:"enabled"`
	MinConfidence   float64   `json:"min_confidence"`
	CooldownSeconds float64   `json:"cooldown_seconds"`
	Condition       Condition `json:"condition"`
	Action          Action    `json:"action"`
}

// Reason maps the rule's condition kind to the trigger reason recorded on
// switch events.
func (r *SwitchingRule) Reason() TriggerReason {
	switch r.Condition.Kind {
	case ConditionSpeakerChange:
		return ReasonSpeakerChange
	case ConditionAudioLevel:
		return ReasonAudioLevel
	case ConditionEngagement:
		return ReasonEngagement
	case ConditionSilence:
		return ReasonSilenceFallback
	default:
		return ReasonManual
	}
}

// Decision is the outcome of one evaluation tick.
type Decision struct {
	Switch          bool          `json:"switch"`
	TargetCamera    string        `json:"target_camera,omitempty"`
	Confidence      float64       `json:"confidence,omitempty"`
	Reason          TriggerReason `json:"trigger_reason,omitempty"`
	RuleID          string        `json:"rule_id,omitempty"`
	CooldownSeconds float64       `json:"-"`
	Transition      string        `json:"-"` // overrides the session transition when set
}

// NoDecision is the no-op decision returned when no rule wins.
func NoDecision() Decision {
	return Decision{Switch: false}
}

// SwitchEvent is one executed or attempted switch, append-only once created.
type SwitchEvent struct {
	EventID         string            `json:"event_id"`
	SessionID       string            `json:"session_id"`
	Timestamp       time.Time         `json:"timestamp"`
	TargetCamera    string            `json:"target_camera"`
	SwitchType      SwitchType        `json:"switch_type"`
	TriggerReason   TriggerReason     `json:"trigger_reason"`
	ConfidenceScore float64           `json:"confidence_score"`
	AudioLevel      float64           `json:"audio_level"`
	EngagementScore float64           `json:"engagement_score"`
	TransitionType  string            `json:"transition_type"`
	Success         bool              `json:"success"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Accessors satisfying the events bus SwitchEvent interface.

func (e *SwitchEvent) GetEventID() string          { return e.EventID }
func (e *SwitchEvent) GetSessionID() string        { return e.SessionID }
func (e *SwitchEvent) GetTargetCamera() string     { return e.TargetCamera }
func (e *SwitchEvent) GetTriggerReason() string    { return string(e.TriggerReason) }
func (e *SwitchEvent) GetSwitchType() string       { return string(e.SwitchType) }
func (e *SwitchEvent) GetConfidence() float64      { return e.ConfidenceScore }
func (e *SwitchEvent) IsSuccess() bool             { return e.Success }
func (e *SwitchEvent) GetFailureReason() string    { return e.FailureReason }
func (e *SwitchEvent) GetAudioLevel() float64      { return e.AudioLevel }
func (e *SwitchEvent) GetEngagementScore() float64 { return e.EngagementScore }
func (e *SwitchEvent) GetTransitionType() string   { return e.TransitionType }
func (e *SwitchEvent) GetTimestamp() time.Time     { return e.Timestamp }

// SessionOptions are the caller-supplied options for a new session. Zero
// values fall back to the configured session defaults.
type SessionOptions struct {
	Mode                SessionMode `json:"mode,omitempty"`
	Sensitivity         string      `json:"sensitivity,omitempty"`
	SwitchDelay         *float64    `json:"switch_delay,omitempty"`
	AudioThreshold      *float64    `json:"audio_threshold,omitempty"`
	EngagementThreshold *float64    `json:"engagement_threshold,omitempty"`
	TransitionType      string      `json:"transition_type,omitempty"`

	SpeakerDetectionEnabled *bool `json:"speaker_detection_enabled,omitempty"`
	AudioLevelSwitching     *bool `json:"audio_level_switching,omitempty"`
	EngagementSwitching     *bool `json:"engagement_switching,omitempty"`
	FallbackEnabled         *bool `json:"fallback_enabled,omitempty"`
	TransitionEffects       *bool `json:"transition_effects,omitempty"`
}

// SessionInfo is the read-only description of a session returned to callers.
type SessionInfo struct {
	SessionID           string        `json:"session_id"`
	InterviewID         string        `json:"interview_id"`
	Mode                SessionMode   `json:"mode"`
	Status              SessionStatus `json:"status"`
	Sensitivity         string        `json:"sensitivity"`
	SwitchDelay         float64       `json:"switch_delay"`
	AudioThreshold      float64       `json:"audio_threshold"`
	EngagementThreshold float64       `json:"engagement_threshold"`
	LiveCamera          string        `json:"live_camera,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// SignalAnalysis is returned from sample ingestion: the decision taken for
// the sample (possibly a no-op), the resulting live camera, and the switch
// event if one was recorded.
type SignalAnalysis struct {
	Decision   Decision     `json:"decision"`
	LiveCamera string       `json:"live_camera,omitempty"`
	Event      *SwitchEvent `json:"event,omitempty"`
}

// ManualSwitchRequest is an explicit operator override.
type ManualSwitchRequest struct {
	TargetCamera   string `json:"target_camera"`
	TransitionType string `json:"transition_type,omitempty"`
	Operator       string `json:"operator,omitempty"`
}

// SwitchResult is returned from a manual switch.
type SwitchResult struct {
	Success    bool         `json:"success"`
	LiveCamera string       `json:"live_camera,omitempty"`
	Event      *SwitchEvent `json:"event,omitempty"`
}

// SessionAnalytics are the running per-session aggregates derived from the
// switch event stream.
type SessionAnalytics struct {
	SessionID         string                   `json:"session_id"`
	TotalSwitches     int64                    `json:"total_switches"`
	AttemptedSwitches int64                    `json:"attempted_switches"`
	FailedSwitches    int64                    `json:"failed_switches"`
	SwitchesByReason  map[TriggerReason]int64  `json:"switches_by_reason"`
	AverageConfidence float64                  `json:"average_confidence"`
	SuccessRate       float64                  `json:"success_rate"`
	CameraDwell       map[string]time.Duration `json:"camera_dwell"`
}

// SessionSummary is returned from stopSession and cached for late readers.
type SessionSummary struct {
	SessionID       string           `json:"session_id"`
	InterviewID     string           `json:"interview_id"`
	StartedAt       time.Time        `json:"started_at"`
	StoppedAt       time.Time        `json:"stopped_at"`
	Duration        time.Duration    `json:"duration"`
	FinalLiveCamera string           `json:"final_live_camera,omitempty"`
	Analytics       SessionAnalytics `json:"analytics"`
}

// EventFilter selects and paginates switch events for a session.
type EventFilter struct {
	Reason TriggerReason // empty matches all reasons
	Limit  int           // 0 means no limit
	Offset int
}
