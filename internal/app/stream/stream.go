package stream

// Event names pushed over a user's live stream.
const (
	EventNewMessage           = "newMessage"
	EventNewConnectionRequest = "newConnectionRequest"
)

// Sink is one live outbound event stream. Implementations must tolerate
// concurrent callers: dispatches and keep-alive pings interleave.
type Sink interface {
	Send(event string, payload any) error
	Ping() error
}

// Dispatcher delivers a named event to a specific user's live stream, if
// any. Delivery is best-effort: implementations never propagate stream
// failures to the caller.
type Dispatcher interface {
	Dispatch(userID string, event string, payload any)
}
