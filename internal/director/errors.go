package director

import (
	"github.com/openstudio/director-go/internal/errors"
)

// Sentinel errors for the caller-visible error taxonomy. Callers test these
// with errors.Is; the engine wraps them with component and context before
// returning.
var (
	ErrSessionNotFound         = errors.NewStd("session not found")
	ErrSessionInactive         = errors.NewStd("session is not active")
	ErrInvalidSessionState     = errors.NewStd("session has no cameras configured")
	ErrInvalidSignalData       = errors.NewStd("signal values out of range")
	ErrInvalidOptions          = errors.NewStd("invalid session options")
	ErrEmptyCameraSet          = errors.NewStd("camera set is empty")
	ErrSwitchTargetUnreachable = errors.NewStd("switch target unreachable")
	ErrRuleNotFound            = errors.NewStd("switching rule not found")
)
