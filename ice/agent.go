package ice

import (
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/logging"
	"github.com/pion/randutil"
	"github.com/pion/stun/v3"
)

// defaultTickInterval is the tick loop's contact-candidates cadence when
// the caller does not supply one.
const defaultTickInterval = 2 * time.Second

// runeSet is reused across ufrag/pwd generation, matching pion/randutil's
// GenerateCryptoRandomString alphabet convention.
const runeSet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Agent owns a single connectivity-check Selector, the candidate-pair
// registry and dispatches tasks onto one goroutine so that selector
// state is only ever touched by its own task. It implements Conn for its
// Selector.
type Agent struct {
	log       logging.LeveledLogger
	transport Transport
	registry  *candidate.Registry
	selector  *Selector

	selectedPair atomic.Pointer[candidate.Pair]
	localPwd     string

	// Validate is the keepalive-revalidation collaborator; re-validating an
	// already-selected pair is opaque to the selector itself. Defaults to
	// "selected pair still set".
	Validate func(p *candidate.Pair) bool
	// Keepalive is invoked instead of a ping when the selected pair is
	// still valid.
	Keepalive func(p *candidate.Pair)

	tickInterval time.Duration
	taskChan     chan func()
	done         chan struct{}
	closeOnce    sync.Once
	startOnce    sync.Once
}

// Config carries the per-agent parameters supplied by an external
// collaborator; there is no config-file loading in the core.
type Config struct {
	Role          Role
	Lite          bool
	LocalUfrag    string
	LocalPwd      string
	RemoteUfrag   string
	RemotePwd     string
	TickInterval  time.Duration
	MinWait       *MinWait
	LoggerFactory logging.LoggerFactory
}

// NewAgent creates an Agent wired to transport for outbound sends.
func NewAgent(cfg Config, transport Transport) (*Agent, error) {
	var log logging.LeveledLogger
	if cfg.LoggerFactory != nil {
		log = cfg.LoggerFactory.NewLogger("ice")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("ice")
	}

	localUfrag, localPwd := cfg.LocalUfrag, cfg.LocalPwd
	var err error
	if localUfrag == "" {
		localUfrag, err = randutil.GenerateCryptoRandomString(16, runeSet)
		if err != nil {
			return nil, err
		}
	}
	if localPwd == "" {
		localPwd, err = randutil.GenerateCryptoRandomString(32, runeSet)
		if err != nil {
			return nil, err
		}
	}

	tieBreaker, err := randutil.GenerateCryptoRandomString(16, "0123456789abcdef")
	if err != nil {
		return nil, err
	}
	var tieBreakerVal uint64
	for _, c := range tieBreaker[:16] {
		tieBreakerVal = tieBreakerVal<<4 + uint64(hexDigit(byte(c)))
	}

	a := &Agent{
		log:          log,
		transport:    transport,
		registry:     candidate.NewRegistry(cfg.Role == Controlling),
		localPwd:     localPwd,
		tickInterval: cfg.TickInterval,
		taskChan:     make(chan func()),
		done:         make(chan struct{}),
	}
	if a.tickInterval == 0 {
		a.tickInterval = defaultTickInterval
	}

	transactions := NewTransactions()
	sel := NewSelector(cfg.Role, a, transactions, log)
	sel.Lite = cfg.Lite
	sel.LocalUfrag = localUfrag
	sel.LocalPwd = localPwd
	sel.RemoteUfrag = cfg.RemoteUfrag
	sel.RemotePwd = cfg.RemotePwd
	sel.TieBreaker = tieBreakerVal
	if cfg.MinWait != nil {
		sel.MinWait = *cfg.MinWait
	}
	a.selector = sel

	return a, nil
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

// Start launches the tick and selector task goroutine: one selector tick
// loop runs per agent.
func (a *Agent) Start() error {
	started := false
	a.startOnce.Do(func() {
		started = true
		a.selector.Start()
		go a.taskLoop()
	})
	if !started {
		return ErrAlreadyStarted
	}
	return nil
}

// Close stops the tick loop. It does not close Transport, which the
// caller owns.
func (a *Agent) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

// run serializes t onto the agent's single task goroutine: all selector
// state is only ever touched by this one goroutine.
func (a *Agent) run(t func()) {
	select {
	case a.taskChan <- t:
	case <-a.done:
	}
}

func (a *Agent) taskLoop() {
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.selector.ContactCandidates()
		case t := <-a.taskChan:
			t()
		case <-a.done:
			return
		}
	}
}

// HandleSuccessResponse feeds an inbound Binding Success Response to the
// selector from the inbound-dispatcher task.
func (a *Agent) HandleSuccessResponse(m *stun.Message, local, remote *candidate.Candidate, remoteAddr net.Addr) {
	a.run(func() { a.selector.HandleSuccessResponse(m, local, remote, remoteAddr) })
}

// HandleBindingRequest feeds an inbound Binding Request to the selector
// from the inbound-dispatcher task.
func (a *Agent) HandleBindingRequest(m *stun.Message, local, remote *candidate.Candidate) {
	a.run(func() { a.selector.HandleBindingRequest(m, local, remote) })
}

// AddPairSync registers a pair on the agent's task goroutine, e.g. after
// gathering a new local candidate. Exposed for callers outside the
// selector's own task.
func (a *Agent) AddPairSync(local, remote *candidate.Candidate) {
	a.run(func() { a.registry.Add(local, remote) })
}

// --- Conn implementation, consumed only from the selector's own task. ---

func (a *Agent) SendBindingRequest(msg []byte, local, remote *candidate.Candidate, _ net.Addr, _ bool) {
	if _, err := a.transport.WriteTo(msg, local, remote); err != nil {
		a.log.Errorf("ice: failed to send binding request to %s: %v", remote, err)
	}
}

func (a *Agent) SendBindingSuccess(m *stun.Message, local, remote *candidate.Candidate) {
	var txID [12]byte
	copy(txID[:], m.TransactionID[:])

	resp, err := buildBindingSuccess(txID, remote.Addr, a.localPwd)
	if err != nil {
		a.log.Errorf("%v: %v", ErrMessageBuildFailure, err)
		return
	}
	if _, err := a.transport.WriteTo(resp.Raw, local, remote); err != nil {
		a.log.Errorf("ice: failed to send binding success to %s: %v", remote, err)
	}
}

func (a *Agent) SetSelectedPair(p *candidate.Pair) {
	a.selectedPair.Store(p)
	a.log.Infof("selected candidate pair: %s", p)
}

func (a *Agent) GetSelectedPair() *candidate.Pair {
	return a.selectedPair.Load()
}

func (a *Agent) GetBestValidCandidatePair() *candidate.Pair {
	return a.registry.BestValid()
}

func (a *Agent) GetBestAvailableCandidatePair() *candidate.Pair {
	return a.registry.BestAvailable()
}

func (a *Agent) AddPair(local, remote *candidate.Candidate) *candidate.Pair {
	return a.registry.Add(local, remote)
}

func (a *Agent) FindPair(local, remote *candidate.Candidate) *candidate.Pair {
	return a.registry.Find(local, remote)
}

func (a *Agent) AllPairsByPriority() []*candidate.Pair {
	pairs := a.registry.All()
	isControlling := a.selector.Role == Controlling
	sort.Slice(pairs, func(i, j int) bool {
		return candidate.Priority(pairs[i], isControlling) > candidate.Priority(pairs[j], isControlling)
	})
	return pairs
}

func (a *Agent) CheckKeepalive() {
	p := a.GetSelectedPair()
	if p == nil {
		return
	}
	if a.Keepalive != nil {
		a.Keepalive(p)
	}
}

func (a *Agent) ValidateSelectedPair() bool {
	p := a.GetSelectedPair()
	if p == nil {
		return false
	}
	if a.Validate != nil {
		return a.Validate(p)
	}
	return true
}
