package events

// KindReplyReceived identifies assistant replies.
const KindReplyReceived Kind = "assistant_reply.received"

// ReplySource tells which assistant produced a reply.
type ReplySource string

const (
	ReplySourceRemote  ReplySource = "remote"
	ReplySourceOffline ReplySource = "offline"
)

// ReplyReceived carries the reply text for a turn.
type ReplyReceived struct {
	Base
	TurnID    string
	Text      string
	ImageURLs []string
	Source    ReplySource
}

// NewReplyReceived creates a reply received event.
func NewReplyReceived(turnID, text string, imageURLs []string, source ReplySource) ReplyReceived {
	return ReplyReceived{Base: NewBase(KindReplyReceived), TurnID: turnID, Text: text, ImageURLs: imageURLs, Source: source}
}
