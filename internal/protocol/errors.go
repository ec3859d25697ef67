package protocol

import "fmt"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Action layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoFunds      = "E_NO_FUNDS"
	ErrBadTopology  = "E_BAD_TOPOLOGY"
	ErrNotFound     = "E_NOT_FOUND"
	ErrBlockedSite  = "E_BLOCKED_SITE"
	ErrWrongPhase   = "E_PHASE"
	ErrRequirements = "E_REQUIREMENTS"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoFunds:         {},
	ErrBadTopology:     {},
	ErrNotFound:        {},
	ErrBlockedSite:     {},
	ErrWrongPhase:      {},
	ErrRequirements:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// ActionError is a rejected action: the world state is untouched and the
// caller gets a stable code plus a human-readable reason.
type ActionError struct {
	Code   string
	Reason string
}

func (e *ActionError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Reason) }

func Errf(code, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
