// conf/validate.go settings validation
package conf

import (
	"slices"

	"github.com/openstudio/director-go/internal/errors"
)

// ValidateSettings checks the loaded settings for invalid values. It returns
// an enhanced error describing the first problem found.
func ValidateSettings(settings *Settings) error {
	if err := validateDirectorSettings(&settings.Director); err != nil {
		return err
	}
	if err := validateOutputSettings(&settings.Output); err != nil {
		return err
	}
	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		return err
	}
	return nil
}

func validateDirectorSettings(settings *DirectorSettings) error {
	d := &settings.SessionDefaults

	if !slices.Contains(ValidModes(), d.Mode) {
		return errors.Newf("invalid switching mode: %q", d.Mode).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if !slices.Contains(ValidSensitivities(), d.Sensitivity) {
		return errors.Newf("invalid sensitivity: %q", d.Sensitivity).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.SwitchDelay < 0 {
		return errors.Newf("switch delay must not be negative: %f", d.SwitchDelay).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.AudioThreshold < 0 || d.AudioThreshold > 1 {
		return errors.Newf("audio threshold must be within [0, 1]: %f", d.AudioThreshold).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.EngagementThreshold < 0 || d.EngagementThreshold > 1 {
		return errors.Newf("engagement threshold must be within [0, 1]: %f", d.EngagementThreshold).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.SilenceFallbackSeconds <= 0 {
		return errors.Newf("silence fallback seconds must be positive: %f", d.SilenceFallbackSeconds).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.QueueSize <= 0 {
		return errors.Newf("queue size must be positive: %d", settings.QueueSize).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	w := &settings.Confidence
	weights := []float64{
		w.SpeakerClarity, w.SpeakerLevel,
		w.AudioLevel, w.AudioClarity,
		w.EngagementAttention, w.EngagementInteract,
		w.EngagementSpeech, w.EngagementGesture,
		w.SilenceInverseLevel,
	}
	for _, weight := range weights {
		if weight < 0 || weight > 1 {
			return errors.Newf("confidence weights must be within [0, 1]: %f", weight).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		return errors.Newf("only one database output can be enabled at a time").
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return errors.Newf("sqlite output requires a database path").
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}
	if settings.Broker == "" {
		return errors.Newf("mqtt integration requires a broker URL").
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Topic == "" {
		return errors.Newf("mqtt integration requires a base topic").
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
