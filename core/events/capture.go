package events

// KindCaptureUnavailable identifies capture source unavailability.
const KindCaptureUnavailable Kind = "capture.unavailable"

// CaptureUnavailable marks the speech capture source as unable to run.
type CaptureUnavailable struct {
	Base
	Reason string
}

// NewCaptureUnavailable creates a capture unavailable event.
func NewCaptureUnavailable(reason string) CaptureUnavailable {
	return CaptureUnavailable{Base: NewBase(KindCaptureUnavailable), Reason: reason}
}
