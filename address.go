package greenroom

import "github.com/google/uuid"

// Address identifies an actor, local or remote. Node is empty for an actor
// local to the System that holds it; a non-empty Node names the remote
// node's dial address and routes Send/Spawn/Stop through that node's
// registered RemoteTransport.
type Address struct {
	ID   string
	Node string
}

// IsLocal reports whether the address names an actor on the local node.
func (a Address) IsLocal() bool {
	return a.Node == ""
}

// IsZero reports whether a holds no identity at all.
func (a Address) IsZero() bool {
	return a.ID == "" && a.Node == ""
}

func (a Address) String() string {
	if a.Node == "" {
		return a.ID
	}
	return a.Node + "/" + a.ID
}

func newActorID() string {
	return uuid.NewString()
}
