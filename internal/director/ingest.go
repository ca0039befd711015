package director

import (
	"time"

	"github.com/openstudio/director-go/internal/errors"
)

// Signal validation happens at ingestion, before a sample can reach the
// evaluation loop. Rejected samples never trigger an evaluation tick.

// validateAudioSample checks an audio sample's value ranges and stamps a
// missing timestamp.
func validateAudioSample(sample *AudioSample, now time.Time) error {
	if sample == nil {
		return errors.New(ErrInvalidSignalData).
			Component("director").
			Category(errors.CategorySignalIngest).
			Context("field", "sample").
			Build()
	}
	if !inUnitRange(sample.Level) {
		return invalidSignalField("level", sample.Level)
	}
	if !inUnitRange(sample.Clarity) {
		return invalidSignalField("clarity", sample.Clarity)
	}
	if !inUnitRange(sample.BackgroundNoise) {
		return invalidSignalField("background_noise", sample.BackgroundNoise)
	}
	if sample.SilenceDuration < 0 {
		return invalidSignalField("silence_duration", sample.SilenceDuration)
	}
	if sample.Frequency < 0 {
		return invalidSignalField("frequency", sample.Frequency)
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = now
	}
	return nil
}

// validateEngagementSample checks an engagement sample's value ranges and
// stamps a missing timestamp.
func validateEngagementSample(sample *EngagementSample, now time.Time) error {
	if sample == nil {
		return errors.New(ErrInvalidSignalData).
			Component("director").
			Category(errors.CategorySignalIngest).
			Context("field", "sample").
			Build()
	}
	if sample.ParticipantID == "" {
		return errors.New(ErrInvalidSignalData).
			Component("director").
			Category(errors.CategorySignalIngest).
			Context("field", "participant_id").
			Build()
	}
	if !inUnitRange(sample.Attention) {
		return invalidSignalField("attention", sample.Attention)
	}
	if !inUnitRange(sample.Interaction) {
		return invalidSignalField("interaction", sample.Interaction)
	}
	if !inUnitRange(sample.SpeechActivity) {
		return invalidSignalField("speech_activity", sample.SpeechActivity)
	}
	if !inUnitRange(sample.GestureActivity) {
		return invalidSignalField("gesture_activity", sample.GestureActivity)
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = now
	}
	return nil
}

func invalidSignalField(field string, value float64) error {
	return errors.New(ErrInvalidSignalData).
		Component("director").
		Category(errors.CategorySignalIngest).
		Context("field", field).
		Context("value", value).
		Build()
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
