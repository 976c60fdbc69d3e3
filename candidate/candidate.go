// Package candidate holds the endpoint and candidate-pair registry that the
// ice package's selectors operate on.
package candidate

import (
	"fmt"
	"net"
)

// Type classifies how a Candidate was discovered.
type Type int

// Candidate types in RFC 8445 preference order.
const (
	Unspecified Type = iota
	Host
	ServerReflexive
	PeerReflexive
	Relay
)

func (t Type) String() string {
	switch t {
	case Host:
		return "host"
	case ServerReflexive:
		return "srflx"
	case PeerReflexive:
		return "prflx"
	case Relay:
		return "relay"
	default:
		return "unspecified"
	}
}

// Candidate is an opaque endpoint descriptor, owned by the agent and
// referenced by pairs.
type Candidate struct {
	ID       string
	Type     Type
	Priority uint32
	Addr     *net.UDPAddr
}

func (c *Candidate) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%s/%d", c.Type, c.Addr, c.Priority)
}
