package director

import (
	"slices"
)

// cameraSet is an immutable camera configuration for a session. Configuring
// cameras swaps the whole set atomically, so an evaluation that captured the
// pointer never observes a partial update.
type cameraSet struct {
	cameras  []CameraConfig // sorted by priority, then camera id
	eligible []CameraConfig // auto-switch-enabled subset, same order
}

// newCameraSet builds a sorted, immutable camera set.
func newCameraSet(cameras []CameraConfig) *cameraSet {
	sorted := make([]CameraConfig, len(cameras))
	copy(sorted, cameras)
	slices.SortFunc(sorted, compareCameras)

	eligible := make([]CameraConfig, 0, len(sorted))
	for _, cam := range sorted {
		if cam.AutoSwitchEnabled {
			eligible = append(eligible, cam)
		}
	}
	return &cameraSet{cameras: sorted, eligible: eligible}
}

// compareCameras orders by ascending priority, then lexicographic camera id.
// This is the deterministic tie-break order for equally qualified cameras.
func compareCameras(a, b CameraConfig) int {
	if a.Priority != b.Priority {
		return a.Priority - b.Priority
	}
	if a.CameraID < b.CameraID {
		return -1
	}
	if a.CameraID > b.CameraID {
		return 1
	}
	return 0
}

// byID returns the configured camera with the given id.
func (cs *cameraSet) byID(cameraID string) (CameraConfig, bool) {
	for _, cam := range cs.cameras {
		if cam.CameraID == cameraID {
			return cam, true
		}
	}
	return CameraConfig{}, false
}

// resolveSubject maps a speaker or participant hint to an eligible camera.
// The hint may name a camera id directly or a camera position label. When
// several cameras share the position, the tie-break order decides.
func (cs *cameraSet) resolveSubject(subject string) (CameraConfig, bool) {
	if subject == "" {
		return CameraConfig{}, false
	}
	for _, cam := range cs.eligible {
		if cam.CameraID == subject {
			return cam, true
		}
	}
	for _, cam := range cs.eligible {
		if cam.Position == subject {
			return cam, true
		}
	}
	return CameraConfig{}, false
}

// resolveFixed resolves a fixed-camera action target. An empty target prefers
// a camera positioned "wide", falling back to the best eligible camera.
func (cs *cameraSet) resolveFixed(target string) (CameraConfig, bool) {
	if target != "" {
		for _, cam := range cs.eligible {
			if cam.CameraID == target {
				return cam, true
			}
		}
		return CameraConfig{}, false
	}
	for _, cam := range cs.eligible {
		if cam.Position == "wide" {
			return cam, true
		}
	}
	if len(cs.eligible) > 0 {
		return cs.eligible[0], true
	}
	return CameraConfig{}, false
}

// nextEligible returns the best eligible camera that is neither the excluded
// camera nor the currently live one. Used for the executor's single retry.
func (cs *cameraSet) nextEligible(exclude, live string) (CameraConfig, bool) {
	for _, cam := range cs.eligible {
		if cam.CameraID == exclude || cam.CameraID == live {
			continue
		}
		return cam, true
	}
	return CameraConfig{}, false
}
