package ice

import (
	"net"
	"sync"
	"time"
)

// defaultRTO is the initial retransmission timeout used to expire pending
// transactions that never received a response.
const defaultRTO = 500 * time.Millisecond

// PendingRequest is an outstanding STUN binding transaction.
type PendingRequest struct {
	TransactionID  [12]byte
	Destination    net.Addr
	IsUseCandidate bool
	SentAt         time.Time
}

// Transactions tracks outstanding binding requests by transaction ID. A
// single mutex protects the map; lock scope never spans a network await.
type Transactions struct {
	mu  sync.Mutex
	tab map[[12]byte]*PendingRequest
}

// NewTransactions creates an empty transaction table.
func NewTransactions() *Transactions {
	return &Transactions{tab: make(map[[12]byte]*PendingRequest)}
}

// Register records a newly-sent binding request.
func (t *Transactions) Register(txID [12]byte, destination net.Addr, isUseCandidate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tab[txID] = &PendingRequest{
		TransactionID:  txID,
		Destination:    destination,
		IsUseCandidate: isUseCandidate,
		SentAt:         time.Now(),
	}
}

// Consume removes and returns the pending request for txID, or nil if none
// is outstanding.
func (t *Transactions) Consume(txID [12]byte) *PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	pr, ok := t.tab[txID]
	if !ok {
		return nil
	}
	delete(t.tab, txID)
	return pr
}

// Expire removes entries older than RTO, returning the ones it removed so
// the caller can log/report them.
func (t *Transactions) Expire(now time.Time, rto time.Duration) []*PendingRequest {
	if rto <= 0 {
		rto = defaultRTO
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []*PendingRequest
	for id, pr := range t.tab {
		if now.Sub(pr.SentAt) > rto {
			expired = append(expired, pr)
			delete(t.tab, id)
		}
	}
	return expired
}

// Len reports the number of outstanding transactions, for tests.
func (t *Transactions) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tab)
}
