package ice

import (
	"encoding/binary"

	"github.com/pion/stun/v3"
)

// ICE-specific STUN attribute types (RFC 8445 §16.1). pion/stun is a
// protocol-agnostic codec for the wire format only; the ICE-specific
// attributes that ride on top of it are small Setter/Getter
// implementations rather than anything pion/stun itself knows about.
const (
	attrPriority      stun.AttrType = 0x0024
	attrUseCandidate  stun.AttrType = 0x0025
	attrICEControlled stun.AttrType = 0x8029
	attrICEControlling stun.AttrType = 0x802a
)

// priorityAttr sets PRIORITY(local.priority) on an outbound request.
type priorityAttr uint32

func (p priorityAttr) AddTo(m *stun.Message) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(p))
	m.Add(attrPriority, v)
	return nil
}

// useCandidateAttr marks a binding request as nominating.
type useCandidateAttr struct{}

func (useCandidateAttr) AddTo(m *stun.Message) error {
	m.Add(attrUseCandidate, nil)
	return nil
}

func hasUseCandidate(m *stun.Message) bool {
	return m.Contains(attrUseCandidate)
}

// controlAttr sets ICE-CONTROLLING or ICE-CONTROLLED depending on role.
type controlAttr struct {
	attr       stun.AttrType
	tieBreaker uint64
}

func (c controlAttr) AddTo(m *stun.Message) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, c.tieBreaker)
	m.Add(c.attr, v)
	return nil
}

func iceControlling(tieBreaker uint64) stun.Setter {
	return controlAttr{attr: attrICEControlling, tieBreaker: tieBreaker}
}

func iceControlled(tieBreaker uint64) stun.Setter {
	return controlAttr{attr: attrICEControlled, tieBreaker: tieBreaker}
}
