package greenroom

import "errors"

// Sentinel errors. Call sites wrap these with fmt.Errorf("...: %w", ...) to
// add context while keeping errors.Is comparisons working.
var (
	ErrMailboxFull       = errors.New("greenroom: mailbox lane full")
	ErrMailboxSealed     = errors.New("greenroom: mailbox sealed")
	ErrUnknownTarget     = errors.New("greenroom: unknown target")
	ErrUnknownActorClass = errors.New("greenroom: unknown actor class")
	ErrRequestTimeout    = errors.New("greenroom: request timed out")
	ErrRemoteUnavailable = errors.New("greenroom: remote node unavailable")
	ErrNoProducer        = errors.New("greenroom: props requires a producer or a registered actor class")
	ErrNoDefaultBehavior = errors.New("greenroom: actor must register a \"default\" behavior")
	ErrUnknownBehavior   = errors.New("greenroom: become: no such behavior registered")
)
