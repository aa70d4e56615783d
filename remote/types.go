package remote

// SendMessageRequest is the wire form of a System.Send delegated to a
// remote node. Payload travels as already-marshalled JSON bytes, so the
// server need not know the payload's concrete Go type to forward it.
//
// SenderNode concretizes the "client sets outgoing sender.node to local
// node's address" rule (spec §4.7): the literal RPC schema names only
// sender_id, but without also carrying the sending node's own address
// there would be nothing for the receiving System to stamp onto the
// reconstructed Address, making that rule unobservable. See DESIGN.md.
type SendMessageRequest struct {
	TargetID     string `json:"target_id"`
	Type         string `json:"type"`
	PayloadBytes []byte `json:"payload_bytes,omitempty"`
	SenderID     string `json:"sender_id,omitempty"`
	SenderNode   string `json:"sender_node,omitempty"`
}

// SendMessageResponse reports whether the target actor exists on the
// receiving node. Success is returned synchronously once the message has
// been passed to that node's System.Send — before the target's handler has
// necessarily run. A post the target's mailbox rejects (full or sealed)
// still reports success; the server's System records it as a dead letter.
type SendMessageResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SpawnActorRequest asks the remote node to spawn an instance of a class
// registered there with System.RegisterActorClass.
type SpawnActorRequest struct {
	ActorClassName string `json:"actor_class_name"`
	MailboxType    string `json:"mailbox_type,omitempty"`
}

// SpawnActorResponse carries the new actor's id on success.
type SpawnActorResponse struct {
	Success bool   `json:"success"`
	ActorID string `json:"actor_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StopActorRequest asks the remote node to stop one of its actors.
type StopActorRequest struct {
	ActorID string `json:"actor_id"`
}

// StopActorResponse reports whether the stop was accepted. Stop is
// idempotent on the remote side, same as locally.
type StopActorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WatchActorRequest subscribes to lifecycle events for one remote actor.
type WatchActorRequest struct {
	ActorID   string `json:"actor_id"`
	WatcherID string `json:"watcher_id"`
}

// EventType enumerates the lifecycle events WatchActor streams.
type EventType string

const (
	EventStarted EventType = "STARTED"
	EventStopped EventType = "STOPPED"
	EventError   EventType = "ERROR"
)

// WatchActorEvent is one event pushed down a WatchActor stream.
type WatchActorEvent struct {
	ActorID   string    `json:"actor_id"`
	EventType EventType `json:"event_type"`
	Error     string    `json:"error,omitempty"`
}
