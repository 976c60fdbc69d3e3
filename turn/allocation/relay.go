package allocation

import (
	"encoding/binary"
	"errors"
	"net"

	"github.com/pion/stun/v3"
)

// errNotIPv4 guards xorPeerAddress against addresses this encoder does
// not support; TURN-over-IPv6 is outside spec scope.
var errNotIPv4 = errors.New("turn: xor-peer-address requires an IPv4 address")

// stunMagicCookie is the fixed STUN magic cookie (RFC 5389 §6) used to
// XOR-encode peer addresses in TURN Data indications.
const stunMagicCookie uint32 = 0x2112A442

// TURN-specific STUN method/attribute numbers (RFC 5766 §13/§14). These
// ride on top of pion/stun/v3's generic message builder the same way
// ice/attrs.go layers ICE's own attributes on it: pion/stun is a
// protocol-agnostic codec, and TURN/ICE each bring their own attribute
// vocabulary.
const (
	turnMethodData    stun.Method   = 0x007
	attrXORPeerAddr   stun.AttrType = 0x0012
	attrData          stun.AttrType = 0x0013
)

// FrameKind classifies the wire framing HandleInbound chose for a relayed
// datagram.
type FrameKind int

// Frame kinds an inbound relay datagram can be forwarded as.
const (
	NoFrame FrameKind = iota
	ChannelDataFrame
	DataIndicationFrame
)

// xorPeerAddress is DATA's companion XOR-PEER-ADDRESS attribute, encoded
// the same way as XOR-MAPPED-ADDRESS (RFC 5389 §15.2) but under its own
// attribute number.
type xorPeerAddress struct {
	addr *net.UDPAddr
}

func (x xorPeerAddress) AddTo(m *stun.Message) error {
	ip4 := x.addr.IP.To4()
	if ip4 == nil {
		return errNotIPv4
	}

	v := make([]byte, 4+net.IPv4len)
	v[0] = 0
	v[1] = 0x01 // family: IPv4
	binary.BigEndian.PutUint16(v[2:4], uint16(x.addr.Port)^uint16(stunMagicCookie>>16))

	cookie := make([]byte, 4)
	binary.BigEndian.PutUint32(cookie, stunMagicCookie)
	for i := 0; i < net.IPv4len; i++ {
		v[4+i] = ip4[i] ^ cookie[i]
	}

	m.Add(attrXORPeerAddr, v)
	return nil
}

// dataAttr is the raw DATA attribute carrying the relayed payload.
type dataAttr []byte

func (d dataAttr) AddTo(m *stun.Message) error {
	m.Add(attrData, d)
	return nil
}

// encodeChannelData frames payload per RFC 5766 §11.4: a 4-byte header
// (channel number, length) followed by the payload, padded to a 4-byte
// boundary. The padding is not counted in the length field.
func encodeChannelData(number uint16, payload []byte) []byte {
	padded := len(payload)
	if rem := padded % 4; rem != 0 {
		padded += 4 - rem
	}

	out := make([]byte, 4+padded)
	binary.BigEndian.PutUint16(out[0:2], number)
	binary.BigEndian.PutUint16(out[2:4], uint16(len(payload)))
	copy(out[4:], payload)
	return out
}

// buildDataIndication builds the STUN Data indication carrying
// XOR-PEER-ADDRESS and DATA for a relayed datagram with no bound channel.
func buildDataIndication(peer *net.UDPAddr, payload []byte) (*stun.Message, error) {
	m := new(stun.Message)
	err := m.Build(
		stun.TransactionID,
		stun.NewType(turnMethodData, stun.ClassIndication),
		xorPeerAddress{addr: peer},
		dataAttr(payload),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// HandleInbound decides how an inbound relay datagram from src should be
// forwarded to the allocation's client: ChannelData framing when a
// channel is bound to src, a Data indication when only a permission
// exists, and a silent drop otherwise. The actual socket write is left to
// the caller, a collaborator responsible for socket I/O; this function is
// pure.
func (a *Allocation) HandleInbound(src *net.UDPAddr, payload []byte) ([]byte, FrameKind, error) {
	if number, ok := a.channelBindings.NumberForAddr(src); ok {
		return encodeChannelData(number, payload), ChannelDataFrame, nil
	}

	if a.permissions.Has(src) {
		msg, err := buildDataIndication(src, payload)
		if err != nil {
			return nil, NoFrame, err
		}
		return msg.Raw, DataIndicationFrame, nil
	}

	a.log.Infof("no permission or channel exists for %s on allocation %s", src, a.FiveTuple)
	return nil, NoFrame, nil
}
