package allocation

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
)

// Transport is the socket-I/O collaborator an Allocation uses to write
// framed relay traffic back to its client; socket multiplexing itself
// stays outside the core, and this interface is the seam.
type Transport interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
}

// Allocation is the per-5-tuple relay state façade, composing the
// permission table, the channel-binding table and the lifetime timer
// behind the FiveTuple identity.
type Allocation struct {
	FiveTuple *FiveTuple
	RelayAddr net.Addr
	Protocol  Protocol

	permissions     *PermissionTable
	channelBindings *ChannelBindTable
	timer           *lifetimeTimer

	closed atomic.Bool

	log       logging.LeveledLogger
	transport Transport
}

// NewAllocation creates an Allocation with empty permission/channel-bind
// tables and no lifetime timer running; call Start to arm it. Calling
// Start a second time is a no-op.
func NewAllocation(fiveTuple *FiveTuple, relayAddr net.Addr, transport Transport, log logging.LeveledLogger) *Allocation {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("turn")
	}
	return &Allocation{
		FiveTuple:       fiveTuple,
		RelayAddr:       relayAddr,
		Protocol:        fiveTuple.Protocol,
		permissions:     NewPermissionTable(),
		channelBindings: NewChannelBindTable(),
		log:             log,
		transport:       transport,
	}
}

// Start arms the lifetime timer. onExpire is supplied by the owning
// Manager so the Allocation itself never reaches back into the registry.
func (a *Allocation) Start(lifetime time.Duration, onExpire func()) {
	if a.timer != nil {
		return
	}
	a.timer = startLifetimeTimer(lifetime, onExpire)
}

// Refresh updates the allocation's lifetime. A no-op once closed.
func (a *Allocation) Refresh(lifetime time.Duration) {
	if a.closed.Load() || a.timer == nil {
		return
	}
	a.timer.refresh(lifetime)
}

// Close is idempotent: on first call it sets closed, stops the lifetime
// timer, and stops every permission and channel-binding timer; subsequent
// calls are no-ops.
func (a *Allocation) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	if a.timer != nil {
		a.timer.stop()
	}
	a.permissions.StopAll()
	a.channelBindings.StopAll()
	return nil
}

// Closed reports whether Close has been called.
func (a *Allocation) Closed() bool {
	return a.closed.Load()
}

// HasPermission reports whether addr's IP currently has a permission.
func (a *Allocation) HasPermission(addr *net.UDPAddr) bool {
	return a.permissions.Has(addr)
}

// AddPermission installs or refreshes a permission for p. A no-op once
// closed.
func (a *Allocation) AddPermission(p *Permission) {
	if a.closed.Load() {
		return
	}
	a.permissions.Add(p)
}

// RemovePermission removes the permission for addr's IP, if any.
func (a *Allocation) RemovePermission(addr *net.UDPAddr) bool {
	return a.permissions.Remove(addr)
}

// AddChannelBind installs or refreshes c, also refreshing the permission
// for c.Peer. A no-op (success, no effect) once closed.
func (a *Allocation) AddChannelBind(c *ChannelBind, lifetime time.Duration) error {
	if a.closed.Load() {
		return nil
	}
	return a.channelBindings.Add(c, lifetime, a.permissions)
}

// RemoveChannelBind removes the bind for number, if any.
func (a *Allocation) RemoveChannelBind(number uint16) bool {
	return a.channelBindings.Remove(number)
}

// GetChannelAddr returns the peer bound to number, if any.
func (a *Allocation) GetChannelAddr(number uint16) *net.UDPAddr {
	return a.channelBindings.AddrForNumber(number)
}

// GetChannelNumber returns the channel number bound to addr, if any.
func (a *Allocation) GetChannelNumber(addr *net.UDPAddr) (uint16, bool) {
	return a.channelBindings.NumberForAddr(addr)
}

// Relay frames an inbound datagram from src via HandleInbound and writes
// it to the allocation's client over Transport. Dropped (no permission,
// no channel) datagrams return (0, nil).
func (a *Allocation) Relay(src *net.UDPAddr, payload []byte) (int, error) {
	frame, kind, err := a.HandleInbound(src, payload)
	if err != nil || kind == NoFrame {
		return 0, err
	}
	return a.transport.WriteTo(frame, a.FiveTuple.SrcAddr)
}
