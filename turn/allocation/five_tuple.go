// Package allocation implements the per-5-tuple TURN relay state: the
// permission table, the channel-binding table, the allocation lifetime
// timer and the façade that composes them.
package allocation

import (
	"fmt"
	"net"
)

// Protocol is the transport protocol a FiveTuple was allocated over. TCP
// and TLS TURN transports are not implemented by this package; Protocol
// still has a TCP value so a collaborator that rejects non-UDP
// allocations has something to switch on. There is no TLS value.
type Protocol byte

// Supported/observed transport protocols.
const (
	UDP Protocol = iota
	TCP
)

func (p Protocol) String() string {
	if p == TCP {
		return "tcp"
	}
	return "udp"
}

// FiveTuple is the primary key of a TURN Allocation.
type FiveTuple struct {
	Protocol Protocol
	SrcAddr  *net.UDPAddr
	DstAddr  *net.UDPAddr
}

// Fingerprint returns the canonical string form used as the Manager's map
// key.
func (f *FiveTuple) Fingerprint() string {
	return fmt.Sprintf("%s_%s_%s", f.SrcAddr.String(), f.DstAddr.String(), f.Protocol)
}

func (f *FiveTuple) String() string {
	return f.Fingerprint()
}

// Equal reports whether f and other name the same 5-tuple.
func (f *FiveTuple) Equal(other *FiveTuple) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Fingerprint() == other.Fingerprint()
}
