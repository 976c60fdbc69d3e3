package ice

import "errors"

// Sentinel errors for the selector's error taxonomy. Conditions that are
// recovered locally (ProtocolMismatch, UnknownTransaction, UnknownPair,
// MessageBuildFailure) are logged at the point of detection and never
// returned to a caller; they are declared here so call sites can compare
// against a stable value in logs and tests.
var (
	// ErrProtocolMismatch is logged when a binding success response arrives
	// from a source address different from the transaction's destination
	// (symmetric NAT).
	ErrProtocolMismatch = errors.New("ice: response source does not match transaction destination")

	// ErrUnknownTransaction is logged when a binding response names a
	// transaction ID with no outstanding request.
	ErrUnknownTransaction = errors.New("ice: unknown transaction id")

	// ErrUnknownPair is logged when a success response names a (local,
	// remote) pair absent from the registry.
	ErrUnknownPair = errors.New("ice: success response from unregistered pair")

	// ErrMessageBuildFailure is logged when the STUN encoder rejects an
	// outbound attribute set; the send is skipped and the tick continues.
	ErrMessageBuildFailure = errors.New("ice: failed to build STUN message")

	// ErrAlreadyStarted guards against starting an agent twice.
	ErrAlreadyStarted = errors.New("ice: agent already started")
)
