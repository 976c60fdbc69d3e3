package allocation

import (
	"net"
	"sync"
	"time"
)

// PermissionTimeout is the default Permission TTL (RFC 5766 §8: "the
// server MUST set... a permission timeout of 5 minutes").
const PermissionTimeout = 5 * time.Minute

func ipFingerprint(addr *net.UDPAddr) string {
	return addr.IP.String()
}

// Permission authorizes a peer IP to send through an Allocation. Its
// timer is a bare time.Timer, not a back-pointer to the owning table: the
// table can be closed while a permission's timer is mid-wait, so entries
// are addressed by key rather than by a live reference to their owner.
type Permission struct {
	Addr *net.UDPAddr

	mu    sync.Mutex
	timer *time.Timer
}

// NewPermission creates a Permission for addr with no timer running yet.
func NewPermission(addr *net.UDPAddr) *Permission {
	return &Permission{Addr: addr}
}

// start launches the expiry timer. onExpire is called on its own
// goroutine when the timer fires without an intervening refresh/stop.
func (p *Permission) start(lifetime time.Duration, onExpire func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = time.AfterFunc(lifetime, onExpire)
}

// refresh resets the expiry timer to lifetime from now.
func (p *Permission) refresh(lifetime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Reset(lifetime)
	}
}

// stop cancels the expiry timer.
func (p *Permission) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
}

// PermissionTable is the Permission table. One mutex guards the map; the
// lock is never held while starting a timer: lookups and inserts take the
// lock, drop it, start the timer, then take the lock again to insert.
type PermissionTable struct {
	mu      sync.Mutex
	entries map[string]*Permission
}

// NewPermissionTable creates an empty permission table.
func NewPermissionTable() *PermissionTable {
	return &PermissionTable{entries: make(map[string]*Permission)}
}

// Add installs p, or refreshes the existing entry for p.Addr's IP and
// discards p.
func (t *PermissionTable) Add(p *Permission) {
	fingerprint := ipFingerprint(p.Addr)

	t.mu.Lock()
	existing, ok := t.entries[fingerprint]
	t.mu.Unlock()
	if ok {
		existing.refresh(PermissionTimeout)
		return
	}

	p.start(PermissionTimeout, func() { t.remove(fingerprint) })

	t.mu.Lock()
	t.entries[fingerprint] = p
	t.mu.Unlock()
}

// Has reports whether a permission for addr's IP exists.
func (t *PermissionTable) Has(addr *net.UDPAddr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[ipFingerprint(addr)]
	return ok
}

// Remove deletes the permission for addr's IP, stopping its timer, and
// reports whether one existed.
func (t *PermissionTable) Remove(addr *net.UDPAddr) bool {
	fingerprint := ipFingerprint(addr)
	t.mu.Lock()
	p, ok := t.entries[fingerprint]
	delete(t.entries, fingerprint)
	t.mu.Unlock()
	if ok {
		p.stop()
	}
	return ok
}

func (t *PermissionTable) remove(fingerprint string) {
	t.mu.Lock()
	delete(t.entries, fingerprint)
	t.mu.Unlock()
}

// StopAll stops every permission's timer without removing entries, used
// by Allocation.Close.
func (t *PermissionTable) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.entries {
		p.stop()
	}
}
