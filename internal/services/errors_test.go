package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sidelines/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "submission", "upload", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"submission", "upload", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected default transport marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, services.KindNone},
		{"validation", services.Wrap(services.ErrValidation, "intake", "select", "not a video", nil), services.KindValidation},
		{"channel", services.Wrap(services.ErrChannel, "progress", "open", "refused", errors.New("dial")), services.KindChannel},
		{"submission", services.Wrap(services.ErrSubmission, "submission", "upload", "500", nil), services.KindSubmission},
		{"transport", services.Wrap(services.ErrTransport, "submission", "upload", "reset", nil), services.KindTransport},
		{"unknown defaults to transport", errors.New("mystery"), services.KindTransport},
		{"context canceled", fmt.Errorf("%w: upload: %w", services.ErrTransport, context.Canceled), services.KindCanceled},
		{"explicit cancel", services.ErrCanceled, services.KindCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
