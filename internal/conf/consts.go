// conf/consts.go shared enum values used across configuration and the engine
package conf

// Switching modes
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
	ModeHybrid = "hybrid"
)

// Sensitivity levels. Each maps to an increasing confidence floor that a rule
// must clear in addition to its own minimum confidence.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// ConfidenceFloor returns the sensitivity-scaled confidence floor for a
// sensitivity level. Unknown levels fall back to the medium floor.
func ConfidenceFloor(sensitivity string) float64 {
	switch sensitivity {
	case SensitivityLow:
		return 0.30
	case SensitivityHigh:
		return 0.55
	default:
		return 0.40
	}
}

// ValidModes lists the accepted switching modes.
func ValidModes() []string {
	return []string{ModeAuto, ModeManual, ModeHybrid}
}

// ValidSensitivities lists the accepted sensitivity levels.
func ValidSensitivities() []string {
	return []string{SensitivityLow, SensitivityMedium, SensitivityHigh}
}
