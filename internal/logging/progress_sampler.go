package logging

import "strings"

// ProgressSampler suppresses repeated progress frames. The server may resend
// the current step with an identical message; only changes produce a log line.
type ProgressSampler struct {
	seen        bool
	lastStep    int
	lastMessage string
}

// NewProgressSampler returns a sampler that logs the first frame it sees.
func NewProgressSampler() *ProgressSampler {
	return &ProgressSampler{}
}

// ShouldLog reports whether a frame differs from the last one logged. The
// message is trimmed before comparison.
func (s *ProgressSampler) ShouldLog(step int, message string) bool {
	if s == nil {
		return true
	}
	message = strings.TrimSpace(message)
	if s.seen && step == s.lastStep && message == s.lastMessage {
		return false
	}
	s.seen = true
	s.lastStep = step
	s.lastMessage = message
	return true
}

// Reset clears the sampler state when a new attempt starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	*s = ProgressSampler{}
}
