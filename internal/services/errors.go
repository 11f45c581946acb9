package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrToolingUnavailable  = errors.New("tooling unavailable")
	ErrExternalTool        = errors.New("external tool error")
	ErrEmptyResult         = errors.New("empty result")
	ErrOwnership           = errors.New("ownership mismatch")
	ErrIncompleteSelection = errors.New("incomplete selection")
	ErrTransient           = errors.New("transient failure")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserFacing reports whether the failure should be surfaced to the requester
// verbatim rather than as a generic processing error. Validation, missing
// tooling, ownership, and selection errors all carry actionable messages.
func UserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrToolingUnavailable),
		errors.Is(err, ErrOwnership),
		errors.Is(err, ErrIncompleteSelection):
		return true
	default:
		return false
	}
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
