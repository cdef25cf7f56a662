package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrChannel       = errors.New("progress channel error")
	ErrTransport     = errors.New("transport error")
	ErrSubmission    = errors.New("submission error")
	ErrCanceled      = errors.New("canceled")
	ErrConfiguration = errors.New("configuration error")
)

// Kind classifies a failed attempt for presentation.
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindChannel    Kind = "channel"
	KindTransport  Kind = "transport"
	KindSubmission Kind = "submission"
	KindCanceled   Kind = "canceled"
)

func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an attempt error to the failure kind reported to the UI.
// Cancellation wins over the transport marker because an aborted request
// usually surfaces as both.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrChannel):
		return KindChannel
	case errors.Is(err, ErrSubmission):
		return KindSubmission
	default:
		return KindTransport
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
