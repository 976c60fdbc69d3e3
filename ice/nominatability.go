package ice

import (
	"time"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/logging"
)

// MinWait holds the per-type nominatability grace periods. Unspecified
// types are never nominatable regardless of elapsed time.
type MinWait struct {
	Host            time.Duration
	ServerReflexive time.Duration
	PeerReflexive   time.Duration
	Relay           time.Duration
}

// DefaultMinWait gives zero grace for Host and a short grace for
// reflexive/relay types, so a flaky first reflexive probe doesn't get
// nominated before a second candidate pair has a chance to succeed.
func DefaultMinWait() MinWait {
	return MinWait{
		Host:            0,
		ServerReflexive: 100 * time.Millisecond,
		PeerReflexive:   100 * time.Millisecond,
		Relay:           200 * time.Millisecond,
	}
}

func (w MinWait) forType(t candidate.Type) (time.Duration, bool) {
	switch t {
	case candidate.Host:
		return w.Host, true
	case candidate.ServerReflexive:
		return w.ServerReflexive, true
	case candidate.PeerReflexive:
		return w.PeerReflexive, true
	case candidate.Relay:
		return w.Relay, true
	default:
		return 0, false
	}
}

// isNominatable reports whether c has cleared its type's grace period
// since startTime. An Unspecified type is never nominatable.
func isNominatable(log logging.LeveledLogger, minWait MinWait, startTime time.Time, c *candidate.Candidate) bool {
	wait, ok := minWait.forType(c.Type)
	if !ok {
		log.Errorf("is_nominatable invalid candidate type %s", c.Type)
		return false
	}
	return time.Since(startTime) > wait
}
