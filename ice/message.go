package ice

import (
	"net"

	"github.com/pion/stun/v3"
)

// bindingRequestParams collects the fields needed to build an outbound
// connectivity-check request.
type bindingRequestParams struct {
	usernameFragmentPair string // "{remote_ufrag}:{local_ufrag}"
	isControlling        bool
	tieBreaker           uint64
	localPriority        uint32
	useCandidate         bool
	remotePassword       string
}

// buildBindingRequest constructs the STUN Binding Request: Username,
// [UseCandidate], role attribute, Priority, short-term MessageIntegrity
// keyed by the remote password, Fingerprint.
func buildBindingRequest(p bindingRequestParams) (*stun.Message, error) {
	setters := []stun.Setter{
		stun.TransactionID,
		stun.NewType(stun.MethodBinding, stun.ClassRequest),
		stun.Username(p.usernameFragmentPair),
	}

	if p.useCandidate {
		setters = append(setters, useCandidateAttr{})
	}

	if p.isControlling {
		setters = append(setters, iceControlling(p.tieBreaker))
	} else {
		setters = append(setters, iceControlled(p.tieBreaker))
	}

	setters = append(setters,
		priorityAttr(p.localPriority),
		stun.NewShortTermIntegrity(p.remotePassword),
		stun.Fingerprint,
	)

	m := new(stun.Message)
	if err := m.Build(setters...); err != nil {
		return nil, err
	}
	return m, nil
}

// buildBindingSuccess constructs the STUN Binding Success Response:
// echoes the request's transaction ID, carries XOR-MAPPED-ADDRESS for
// remoteAddr, MessageIntegrity keyed by the local password, and
// Fingerprint.
func buildBindingSuccess(transactionID [stun.TransactionIDSize]byte, remoteAddr net.Addr, localPassword string) (*stun.Message, error) {
	udpAddr, _ := remoteAddr.(*net.UDPAddr)
	xorAddr := stun.XORMappedAddress{}
	if udpAddr != nil {
		xorAddr.IP = udpAddr.IP
		xorAddr.Port = udpAddr.Port
	}

	m := new(stun.Message)
	err := m.Build(
		stun.NewTransactionIDSetter(transactionID),
		stun.NewType(stun.MethodBinding, stun.ClassSuccessResponse),
		&xorAddr,
		stun.NewShortTermIntegrity(localPassword),
		stun.Fingerprint,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
