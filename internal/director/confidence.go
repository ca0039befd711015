package director

import (
	"github.com/openstudio/director-go/internal/conf"
)

// Confidence scoring combines the relevant signal strengths into a single
// [0, 1] score using fixed, configured weights per rule type. The weights are
// deployment tunables (conf.ConfidenceWeights), not learned values.

// speakerConfidence scores a speaker-change decision from the latest audio.
func speakerConfidence(w *conf.ConfidenceWeights, audio *AudioSample) float64 {
	if audio == nil {
		return 0
	}
	return clamp01(audio.Clarity*w.SpeakerClarity + audio.Level*w.SpeakerLevel)
}

// audioLevelConfidence scores an audio-level decision.
func audioLevelConfidence(w *conf.ConfidenceWeights, audio *AudioSample) float64 {
	if audio == nil {
		return 0
	}
	return clamp01(audio.Level*w.AudioLevel + audio.Clarity*w.AudioClarity)
}

// engagementComposite scores one participant's engagement sample.
func engagementComposite(w *conf.ConfidenceWeights, sample *EngagementSample) float64 {
	return clamp01(sample.Attention*w.EngagementAttention +
		sample.Interaction*w.EngagementInteract +
		sample.SpeechActivity*w.EngagementSpeech +
		sample.GestureActivity*w.EngagementGesture)
}

// silenceConfidence scores a silence-fallback decision. The quieter the room,
// the stronger the evidence that the fallback shot should be live.
func silenceConfidence(w *conf.ConfidenceWeights, audio *AudioSample) float64 {
	if audio == nil {
		return 0
	}
	return clamp01((1 - audio.Level) * w.SilenceInverseLevel)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
