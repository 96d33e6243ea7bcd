package realtime

// Reasons passed to Observer.EnvelopeDropped.
const (
	DropUnknownKind  = "unknown_kind"
	DropUnknownEvent = "unknown_event"
	DropDecodeError  = "decode_error"
)

// Gateway operation names used in diagnostics.
const (
	OpSendChannelMessage   = "sendChannelMessage"
	OpReplyMessage         = "replyMessage"
	OpSendThreadMessage    = "sendThreadMessage"
	OpReplyThreadMessage   = "replyThreadMessage"
	OpSendPersonalMessage  = "sendPersonalMessage"
	OpGetMessagesByChannel = "getMessagesByChannel"
	OpGetThreadMessages    = "getThreadMessages"
	OpGetPersonalMessages  = "getPersonalMessages"
	OpGetCurrentUserRole   = "getCurrentUserRole"
	OpGetBannedMembers     = "getBannedMembers"
)

// Observer receives the diagnostics the core emits. It is the only place
// failures become visible outside the process log.
type Observer interface {
	EnvelopeRouted(route string)
	EnvelopeDropped(reason string)
	GatewayFailed(op string)
	PresenceChanged(active int)
}

type nopObserver struct{}

func (nopObserver) EnvelopeRouted(string)  {}
func (nopObserver) EnvelopeDropped(string) {}
func (nopObserver) GatewayFailed(string)   {}
func (nopObserver) PresenceChanged(int)    {}
