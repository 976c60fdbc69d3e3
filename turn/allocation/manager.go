package allocation

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// errAllocationExists guards against a duplicate FiveTuple.
var errAllocationExists = errors.New("turn: allocation already exists for this five-tuple")

// ManagerConfig configures a Manager's socket-allocation collaborator.
// AllocatePacketConn is how the manager asks the host for a free relay
// port; host-interface enumeration itself stays a collaborator concern.
type ManagerConfig struct {
	LeveledLogger      logging.LeveledLogger
	AllocatePacketConn func(network string, requestedPort int) (net.PacketConn, net.Addr, error)
}

// Manager is the process-wide Allocation registry keyed by
// FiveTuple.Fingerprint().
type Manager struct {
	log logging.LeveledLogger

	mu          sync.RWMutex
	allocations map[string]*Allocation

	allocatePacketConn func(network string, requestedPort int) (net.PacketConn, net.Addr, error)
}

// NewManager creates an empty Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.AllocatePacketConn == nil {
		return nil, errors.New("turn: AllocatePacketConn must be set")
	}
	log := cfg.LeveledLogger
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("turn")
	}
	return &Manager{
		log:                log,
		allocations:        make(map[string]*Allocation, 64),
		allocatePacketConn: cfg.AllocatePacketConn,
	}, nil
}

// GetAllocation fetches the allocation matching fiveTuple, or nil.
func (m *Manager) GetAllocation(fiveTuple *FiveTuple) *Allocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allocations[fiveTuple.Fingerprint()]
}

// CreateAllocation opens a relay socket for fiveTuple and registers a new
// Allocation with a running lifetime timer.
func (m *Manager) CreateAllocation(fiveTuple *FiveTuple, transport Transport, requestedPort int, lifetime time.Duration) (*Allocation, net.PacketConn, error) {
	switch {
	case fiveTuple == nil || fiveTuple.SrcAddr == nil || fiveTuple.DstAddr == nil:
		return nil, nil, errors.New("turn: allocations must not be created with a nil five-tuple or address")
	case lifetime <= 0:
		return nil, nil, errors.New("turn: allocations must not be created with a zero lifetime")
	}

	if m.GetAllocation(fiveTuple) != nil {
		return nil, nil, errAllocationExists
	}

	conn, relayAddr, err := m.allocatePacketConn("udp4", requestedPort)
	if err != nil {
		return nil, nil, err
	}

	a := NewAllocation(fiveTuple, relayAddr, transport, m.log)
	a.Start(lifetime, func() { m.DeleteAllocation(fiveTuple) })

	m.mu.Lock()
	m.allocations[fiveTuple.Fingerprint()] = a
	m.mu.Unlock()

	m.log.Debugf("created allocation %s relaying on %s", fiveTuple, relayAddr)
	return a, conn, nil
}

// DeleteAllocation removes and closes the allocation for fiveTuple, if
// any. The entry is removed from the registry within one timer tick.
func (m *Manager) DeleteAllocation(fiveTuple *FiveTuple) {
	fingerprint := fiveTuple.Fingerprint()

	m.mu.Lock()
	a, ok := m.allocations[fingerprint]
	delete(m.allocations, fingerprint)
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := a.Close(); err != nil {
		m.log.Errorf("failed to close allocation %s: %v", fiveTuple, err)
	}
}

// Close closes every managed allocation.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocations {
		if err := a.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of live allocations, for tests.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.allocations)
}
