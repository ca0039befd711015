package director

// featureSnapshot is the session's current fused view of incoming signals:
// the latest audio sample plus the latest engagement sample per participant.
// It is owned exclusively by the session's evaluation loop, so no locking is
// needed.
type featureSnapshot struct {
	audio      *AudioSample
	engagement map[string]EngagementSample
}

func newFeatureSnapshot() *featureSnapshot {
	return &featureSnapshot{
		engagement: make(map[string]EngagementSample),
	}
}

// mergeAudio replaces the audio component of the snapshot, latest value wins.
func (fs *featureSnapshot) mergeAudio(sample *AudioSample) {
	fs.audio = sample
}

// mergeEngagement replaces the participant's engagement component.
func (fs *featureSnapshot) mergeEngagement(sample *EngagementSample) {
	fs.engagement[sample.ParticipantID] = *sample
}

// audioLevel returns the last seen audio level, zero before any audio.
func (fs *featureSnapshot) audioLevel() float64 {
	if fs.audio == nil {
		return 0
	}
	return fs.audio.Level
}
