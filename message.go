package greenroom

import "strings"

// Reserved message type prefixes. Types under $system. are produced by the
// runtime itself; user code posting a message of one of these types through
// Send is scoped to the user lanes regardless, but the prefix is reserved
// to avoid shadowing a future runtime message of the same name.
const (
	prefixSystem       = "$system."
	prefixPriorityHigh = "$priority.high"
	prefixPriorityLow  = "$priority.low"

	// MsgStarted is delivered to an actor's system lane once, immediately
	// after it is spawned and wired to its mailbox.
	MsgStarted = prefixSystem + "started"
	// MsgFailure carries a FailurePayload describing a failure, sent through
	// System.Send to the parent of a supervisor whose strategy escalated.
	MsgFailure = prefixSystem + "failure"

	// errorType is the sentinel payload-free system message that seals a
	// mailbox. It is intercepted at PostSystem time and never delivered.
	errorType = "error"
)

// Message is the unit of communication between actors. Payload is left
// opaque to the runtime; Sender is the Address the receiving actor should
// reply to, and is the zero Address when the message has no reply target
// (e.g. a tick message an actor sends to itself).
type Message struct {
	Type    string
	Payload interface{}
	Sender  Address
}

// FailurePayload is the Payload of a MsgFailure message.
type FailurePayload struct {
	Child Address
	Err   error
}

func isHighPriority(msgType string) bool {
	return strings.HasPrefix(msgType, prefixPriorityHigh)
}

func isLowPriority(msgType string) bool {
	return strings.HasPrefix(msgType, prefixPriorityLow)
}
