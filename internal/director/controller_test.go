package director

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/errors"
)

func TestStartSessionAppliesDefaultsAndOverrides(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	info, err := c.StartSession("interview-1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Equal(t, "interview-1", info.InterviewID)
	assert.Equal(t, ModeAuto, info.Mode)
	assert.Equal(t, StatusActive, info.Status)
	assert.Equal(t, conf.SensitivityMedium, info.Sensitivity)
	assert.InDelta(t, 1.0, info.SwitchDelay, 1e-9)

	overridden, err := c.StartSession("interview-2", &SessionOptions{
		Mode:           ModeHybrid,
		Sensitivity:    conf.SensitivityHigh,
		SwitchDelay:    floatPtr(2.5),
		AudioThreshold: floatPtr(0.3),
	})
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, overridden.Mode)
	assert.Equal(t, conf.SensitivityHigh, overridden.Sensitivity)
	assert.InDelta(t, 2.5, overridden.SwitchDelay, 1e-9)
	assert.InDelta(t, 0.3, overridden.AudioThreshold, 1e-9)
}

func TestStartSessionRejectsInvalidOptions(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	cases := []struct {
		name string
		opts *SessionOptions
	}{
		{"unknown mode", &SessionOptions{Mode: "panic"}},
		{"unknown sensitivity", &SessionOptions{Sensitivity: "extreme"}},
		{"negative switch delay", &SessionOptions{SwitchDelay: floatPtr(-1)}},
		{"audio threshold above one", &SessionOptions{AudioThreshold: floatPtr(1.5)}},
		{"negative engagement threshold", &SessionOptions{EngagementThreshold: floatPtr(-0.1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.StartSession("interview-1", tc.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestConfigureCamerasValidation(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	info, err := c.StartSession("interview-1", nil)
	require.NoError(t, err)

	err = c.ConfigureCameras(info.SessionID, nil)
	assert.ErrorIs(t, err, ErrEmptyCameraSet)

	err = c.ConfigureCameras(info.SessionID, []CameraConfig{{CameraID: ""}})
	require.Error(t, err)

	err = c.ConfigureCameras(info.SessionID, []CameraConfig{
		{CameraID: "cam-1", AutoSwitchEnabled: true},
		{CameraID: "cam-1", AutoSwitchEnabled: true},
	})
	require.Error(t, err)

	err = c.ConfigureCameras("no-such-session", threeCameras())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIngestBeforeCamerasConfigured(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	info, err := c.StartSession("interview-1", nil)
	require.NoError(t, err)

	_, err = c.IngestAudio(info.SessionID, speakerSample("host"))
	assert.ErrorIs(t, err, ErrInvalidSessionState)

	_, err = c.IngestEngagement(info.SessionID, engagementSample("guest"))
	assert.ErrorIs(t, err, ErrInvalidSessionState)
}

func TestIngestRejectsOutOfRangeSignals(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	cases := []struct {
		name   string
		sample *AudioSample
	}{
		{"level above one", &AudioSample{Level: 1.2}},
		{"negative level", &AudioSample{Level: -0.1}},
		{"clarity above one", &AudioSample{Level: 0.5, Clarity: 1.5}},
		{"negative silence duration", &AudioSample{Level: 0.5, SilenceDuration: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.IngestAudio(id, tc.sample)
			assert.ErrorIs(t, err, ErrInvalidSignalData)
		})
	}

	_, err = c.IngestEngagement(id, &EngagementSample{ParticipantID: "", Attention: 0.5})
	assert.ErrorIs(t, err, ErrInvalidSignalData)

	_, err = c.IngestEngagement(id, &EngagementSample{ParticipantID: "p1", Attention: 1.5})
	assert.ErrorIs(t, err, ErrInvalidSignalData)
}

func TestSpeakerChangeSwitchesToSpeakerCamera(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	analysis, err := c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, "cam-guest", analysis.Decision.TargetCamera)
	assert.Equal(t, ReasonSpeakerChange, analysis.Decision.Reason)
	assert.Equal(t, "cam-guest", analysis.LiveCamera)
	require.NotNil(t, analysis.Event)
	assert.True(t, analysis.Event.Success)
	assert.Equal(t, SwitchTypeAuto, analysis.Event.SwitchType)
}

func TestSpeakerHintResolvesByPosition(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	analysis, err := c.IngestAudio(id, speakerSample("guest"))
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, "cam-guest", analysis.Decision.TargetCamera)
}

func TestSwitchToSameCameraIsEventlessNoOp(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	first, err := c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)
	require.NotNil(t, first.Event)

	clock.Advance(5 * time.Second)

	second, err := c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)
	assert.True(t, second.Decision.Switch)
	assert.Nil(t, second.Event)
	assert.Equal(t, "cam-host", second.LiveCamera)

	analytics, err := c.GetSessionAnalytics(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), analytics.TotalSwitches)
	assert.Equal(t, int64(1), analytics.AttemptedSwitches)
}

func TestCooldownRejectsRapidSwitches(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	first, err := c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)
	require.NotNil(t, first.Event)
	require.True(t, first.Event.Success)

	// Inside the gate: the speaker-change rule carries a 2s cooldown, which
	// beats the 1s session switch delay.
	clock.Advance(500 * time.Millisecond)
	blocked, err := c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)
	require.NotNil(t, blocked.Event)
	assert.False(t, blocked.Event.Success)
	assert.Equal(t, FailureCooldownActive, blocked.Event.FailureReason)
	assert.Equal(t, "cam-host", blocked.LiveCamera)

	// Past the gate the same decision goes through.
	clock.Advance(2 * time.Second)
	allowed, err := c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)
	require.NotNil(t, allowed.Event)
	assert.True(t, allowed.Event.Success)
	assert.Equal(t, "cam-guest", allowed.LiveCamera)
}

func TestEngagementSwitchPicksMostEngagedParticipant(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	// Disable the audio-driven rules so engagement decides alone.
	id, err := startConfigured(c, &SessionOptions{
		SpeakerDetectionEnabled: boolPtr(false),
		AudioLevelSwitching:     boolPtr(false),
	})
	require.NoError(t, err)

	weak := &EngagementSample{ParticipantID: "host", Attention: 0.5, SpeechActivity: 0.4}
	analysis, err := c.IngestEngagement(id, weak)
	require.NoError(t, err)
	// Composite 0.32 stays under the 0.5 engagement threshold.
	assert.False(t, analysis.Decision.Switch)

	analysis, err = c.IngestEngagement(id, engagementSample("guest"))
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, ReasonEngagement, analysis.Decision.Reason)
	assert.Equal(t, "cam-guest", analysis.Decision.TargetCamera)
}

func TestSilenceFallbackSwitchesToWideShot(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	// Quiet but under the configured 5s fallback window: no rule fires.
	analysis, err := c.IngestAudio(id, silenceSample(3))
	require.NoError(t, err)
	assert.False(t, analysis.Decision.Switch)

	analysis, err = c.IngestAudio(id, silenceSample(6))
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, ReasonSilenceFallback, analysis.Decision.Reason)
	assert.Equal(t, "cam-wide", analysis.Decision.TargetCamera)
}

func TestThresholdComparisonsAreInclusive(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, &SessionOptions{AudioThreshold: floatPtr(0.5)})
	require.NoError(t, err)

	// Level exactly at the threshold satisfies the condition.
	analysis, err := c.IngestAudio(id, &AudioSample{
		Level:           0.5,
		Clarity:         0.8,
		SpeakerDetected: "cam-guest",
	})
	require.NoError(t, err)
	assert.True(t, analysis.Decision.Switch)

	_, err = c.StopSession(id)
	require.NoError(t, err)

	id2, err := startConfigured(c, &SessionOptions{AudioThreshold: floatPtr(0.5)})
	require.NoError(t, err)

	analysis, err = c.IngestAudio(id2, &AudioSample{
		Level:           0.49,
		Clarity:         0.8,
		SpeakerDetected: "cam-guest",
	})
	require.NoError(t, err)
	assert.False(t, analysis.Decision.Switch)
}

func TestHighSensitivityRaisesConfidenceFloor(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	// The speaker-change rule scores 0.2*0.4 + 0.6*0.6 = 0.44 for this
	// sample: above the medium floor, below the high one. The lower-priority
	// audio-level rule's 0.48 also sits below the high floor, so raising the
	// sensitivity suppresses the switch entirely.
	sample := func() *AudioSample {
		return &AudioSample{Level: 0.6, Clarity: 0.2, SpeakerDetected: "cam-guest"}
	}

	mediumID, err := startConfigured(c, &SessionOptions{Sensitivity: conf.SensitivityMedium})
	require.NoError(t, err)
	analysis, err := c.IngestAudio(mediumID, sample())
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, ReasonSpeakerChange, analysis.Decision.Reason)

	highID, err := startConfigured(c, &SessionOptions{Sensitivity: conf.SensitivityHigh})
	require.NoError(t, err)
	analysis, err = c.IngestAudio(highID, sample())
	require.NoError(t, err)
	assert.False(t, analysis.Decision.Switch)
}

func TestDisabledCameraSetYieldsNoOpEvaluations(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	info, err := c.StartSession("interview-1", nil)
	require.NoError(t, err)

	cameras := threeCameras()
	for i := range cameras {
		cameras[i].AutoSwitchEnabled = false
	}
	require.NoError(t, c.ConfigureCameras(info.SessionID, cameras))

	analysis, err := c.IngestAudio(info.SessionID, speakerSample("cam-guest"))
	require.NoError(t, err)
	assert.False(t, analysis.Decision.Switch)
	assert.Nil(t, analysis.Event)
	assert.Empty(t, analysis.LiveCamera)
}

func TestManualModeNeverEvaluates(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, &SessionOptions{Mode: ModeManual})
	require.NoError(t, err)

	analysis, err := c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)
	assert.False(t, analysis.Decision.Switch)

	// Manual overrides still work.
	result, err := c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "cam-wide"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "cam-wide", result.LiveCamera)
	require.NotNil(t, result.Event)
	assert.Equal(t, SwitchTypeManual, result.Event.SwitchType)
	assert.Equal(t, ReasonManual, result.Event.TriggerReason)
}

func TestManualSwitchBypassesCooldown(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	first, err := c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)
	require.NotNil(t, first.Event)

	clock.Advance(100 * time.Millisecond)

	result, err := c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "cam-wide"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "cam-wide", result.LiveCamera)
}

func TestManualSwitchToAlreadyLiveCameraIsNoOp(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	first, err := c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "cam-host"})
	require.NoError(t, err)
	require.NotNil(t, first.Event)

	second, err := c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "cam-host"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Nil(t, second.Event)
}

func TestManualSwitchValidation(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	_, err = c.ExecuteManualSwitch(id, nil)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: ""})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	result, err := c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "no-such-camera"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Event)
	assert.Equal(t, FailureTargetUnreachable, result.Event.FailureReason)
}

func TestStopSessionReturnsSummaryAndStaysQueryable(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	_, err = c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)
	clock.Advance(10 * time.Second)

	summary, err := c.StopSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, summary.SessionID)
	assert.Equal(t, "cam-host", summary.FinalLiveCamera)
	assert.Equal(t, int64(1), summary.Analytics.TotalSwitches)
	assert.Equal(t, 10*time.Second, summary.Duration)

	// The session no longer accepts samples.
	_, err = c.IngestAudio(id, speakerSample("cam-guest"))
	assert.ErrorIs(t, err, ErrSessionInactive)

	// Stopping again returns the cached summary.
	again, err := c.StopSession(id)
	require.NoError(t, err)
	assert.Equal(t, summary.StoppedAt, again.StoppedAt)

	// Analytics and events stay queryable after stop.
	analytics, err := c.GetSessionAnalytics(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), analytics.TotalSwitches)

	events, err := c.GetSessionEvents(id, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStopUnknownSession(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	_, err := c.StopSession("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSessionEventsFilterAndPagination(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	speakers := []string{"cam-host", "cam-guest", "cam-wide", "cam-host"}
	for _, speaker := range speakers {
		_, err := c.IngestAudio(id, speakerSample(speaker))
		require.NoError(t, err)
		clock.Advance(5 * time.Second)
	}
	_, err = c.ExecuteManualSwitch(id, &ManualSwitchRequest{TargetCamera: "cam-guest"})
	require.NoError(t, err)

	all, err := c.GetSessionEvents(id, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	auto, err := c.GetSessionEvents(id, EventFilter{Reason: ReasonSpeakerChange})
	require.NoError(t, err)
	assert.Len(t, auto, 4)

	manual, err := c.GetSessionEvents(id, EventFilter{Reason: ReasonManual})
	require.NoError(t, err)
	require.Len(t, manual, 1)
	assert.Equal(t, "cam-guest", manual[0].TargetCamera)

	page, err := c.GetSessionEvents(id, EventFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].EventID, page[0].EventID)
	assert.Equal(t, all[2].EventID, page[1].EventID)

	beyond, err := c.GetSessionEvents(id, EventFilter{Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// A negative offset is treated as zero, not a panic.
	negative, err := c.GetSessionEvents(id, EventFilter{Offset: -1})
	require.NoError(t, err)
	assert.Len(t, negative, 5)
}

func TestAnalyticsAggregates(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	_, err = c.IngestAudio(id, speakerSample("cam-host"))
	require.NoError(t, err)

	// Blocked by cooldown: counts as attempted, not successful.
	clock.Advance(100 * time.Millisecond)
	_, err = c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)

	clock.Advance(5 * time.Second)
	_, err = c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)

	clock.Advance(3 * time.Second)

	analytics, err := c.GetSessionAnalytics(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalSwitches)
	assert.Equal(t, int64(3), analytics.AttemptedSwitches)
	assert.Equal(t, int64(1), analytics.FailedSwitches)
	assert.Equal(t, int64(2), analytics.SwitchesByReason[ReasonSpeakerChange])
	assert.InDelta(t, 2.0/3.0, analytics.SuccessRate, 1e-9)
	assert.Greater(t, analytics.AverageConfidence, 0.0)

	// cam-host was live from its switch until cam-guest took over.
	assert.Equal(t, 5*time.Second+100*time.Millisecond, analytics.CameraDwell["cam-host"])
	// cam-guest's open interval accrues up to the query time.
	assert.Equal(t, 3*time.Second, analytics.CameraDwell["cam-guest"])
}

func TestUnknownSessionErrors(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	_, err := c.IngestAudio("ghost", speakerSample("cam-host"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = c.GetSessionAnalytics("ghost")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = c.GetSessionEvents("ghost", EventFilter{})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var enhanced *errors.EnhancedError
	require.ErrorAs(t, err, &enhanced)
	assert.Equal(t, "director", enhanced.Component)
	assert.Equal(t, errors.CategoryNotFound, enhanced.Category)
}

func TestRuleUpdateChangesBehavior(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	rules, version := c.GetSwitchingRules()
	require.Len(t, rules, 4)
	assert.Equal(t, int64(1), version)

	// Disabling the speaker rule leaves the same sample to the audio-level
	// rule, which resolves the speaker hint the same way.
	_, err := c.UpdateSwitchingRule("speaker-change", RuleUpdate{Enabled: boolPtr(false)})
	require.NoError(t, err)

	_, version = c.GetSwitchingRules()
	assert.Equal(t, int64(2), version)

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	analysis, err := c.IngestAudio(id, speakerSample("cam-guest"))
	require.NoError(t, err)
	require.True(t, analysis.Decision.Switch)
	assert.Equal(t, ReasonAudioLevel, analysis.Decision.Reason)
	assert.Equal(t, "audio-level", analysis.Decision.RuleID)
}

func TestRuleUpdateValidation(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	_, err := c.UpdateSwitchingRule("no-such-rule", RuleUpdate{Enabled: boolPtr(true)})
	assert.ErrorIs(t, err, ErrRuleNotFound)

	_, err = c.UpdateSwitchingRule("speaker-change", RuleUpdate{MinConfidence: floatPtr(1.5)})
	require.Error(t, err)

	_, err = c.UpdateSwitchingRule("speaker-change", RuleUpdate{CooldownSeconds: floatPtr(-1)})
	require.Error(t, err)
}

func TestActiveSessionsListing(t *testing.T) {
	c, _ := newTestController()
	defer c.Shutdown()

	assert.Empty(t, c.ActiveSessions())

	first, err := c.StartSession("interview-1", nil)
	require.NoError(t, err)
	_, err = c.StartSession("interview-2", nil)
	require.NoError(t, err)

	assert.Len(t, c.ActiveSessions(), 2)

	_, err = c.StopSession(first.SessionID)
	require.NoError(t, err)
	assert.Len(t, c.ActiveSessions(), 1)
}

func TestSamplesProcessedInArrivalOrder(t *testing.T) {
	c, clock := newTestController()
	defer c.Shutdown()

	id, err := startConfigured(c, nil)
	require.NoError(t, err)

	// Each ingest call returns only after its evaluation completed, so
	// issuing them back to back from one goroutine fixes the order.
	targets := []string{"cam-host", "cam-guest", "cam-wide"}
	for _, target := range targets {
		analysis, err := c.IngestAudio(id, speakerSample(target))
		require.NoError(t, err)
		require.NotNil(t, analysis.Event)
		require.True(t, analysis.Event.Success)
		clock.Advance(5 * time.Second)
	}

	events, err := c.GetSessionEvents(id, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, target := range targets {
		assert.Equal(t, target, events[i].TargetCamera)
	}
}
