// Package protocol implements the fixed-layout binary messages exchanged
// between host and clients. Every message is big-endian and opens with a
// 4-byte magic cookie followed by a 1-byte type tag. Client and server
// payloads share the payload tag and are told apart by their fixed sizes.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const MagicCookie uint32 = 0xabcddcba

const (
	TypeOffer   byte = 0x2
	TypeRequest byte = 0x3
	TypePayload byte = 0x4
)

// Exact on-wire sizes. A decode of any other length is invalid.
const (
	OfferSize    = 39
	RequestSize  = 38
	DecisionSize = 10
	EventSize    = 9
)

const (
	nameFieldSize   = 32
	actionFieldSize = 5
)

// The two meaningful player decision tokens. Any other well-formed
// 5-byte token is ignored by the session engine.
const (
	DecisionHit   = "Hittt"
	DecisionStand = "Stand"
)

// Event result codes.
const (
	ResultCard       byte = 0
	ResultTie        byte = 1
	ResultDealerWins byte = 2
	ResultPlayerWins byte = 3
)

// ErrInvalidMessage reports a frame whose length, cookie or type tag does
// not match the expected layout. Callers discard the frame and keep
// reading; it is never fatal on its own.
var ErrInvalidMessage = errors.New("invalid protocol message")

// Offer advertises the host over UDP broadcast.
type Offer struct {
	Port uint16
	Name string
}

// Request opens a session: how many rounds the client wants and the name
// it plays under.
type Request struct {
	Rounds uint8
	Name   string
}

// Event is the single server-to-client message: a dealt card while the
// round runs (result 0) or the round outcome (results 1-3). Rank and
// suit are only meaningful when a card accompanies the event; result-only
// events carry a zeroed sentinel card.
type Event struct {
	Result byte
	Rank   uint16
	Suit   uint8
}

func putHeader(buf []byte, typ byte) {
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = typ
}

func checkHeader(data []byte, typ byte, size int) bool {
	if len(data) != size {
		return false
	}
	return binary.BigEndian.Uint32(data[0:4]) == MagicCookie && data[4] == typ
}

// padText copies s into the fixed-width field, null-padding the tail.
// Text longer than the field is silently truncated.
func padText(field []byte, s string) {
	copy(field, s)
}

func trimText(field []byte) string {
	return string(bytes.TrimRight(field, "\x00"))
}

func EncodeOffer(o Offer) []byte {
	buf := make([]byte, OfferSize)
	putHeader(buf, TypeOffer)
	binary.BigEndian.PutUint16(buf[5:7], o.Port)
	padText(buf[7:39], o.Name)
	return buf
}

func DecodeOffer(data []byte) (Offer, error) {
	if !checkHeader(data, TypeOffer, OfferSize) {
		return Offer{}, ErrInvalidMessage
	}
	return Offer{
		Port: binary.BigEndian.Uint16(data[5:7]),
		Name: trimText(data[7:39]),
	}, nil
}

func EncodeRequest(r Request) []byte {
	buf := make([]byte, RequestSize)
	putHeader(buf, TypeRequest)
	buf[5] = r.Rounds
	padText(buf[6:38], r.Name)
	return buf
}

func DecodeRequest(data []byte) (Request, error) {
	if !checkHeader(data, TypeRequest, RequestSize) {
		return Request{}, ErrInvalidMessage
	}
	return Request{
		Rounds: data[5],
		Name:   trimText(data[6:38]),
	}, nil
}

func EncodeDecision(action string) []byte {
	buf := make([]byte, DecisionSize)
	putHeader(buf, TypePayload)
	padText(buf[5:10], action)
	return buf
}

func DecodeDecision(data []byte) (string, error) {
	if !checkHeader(data, TypePayload, DecisionSize) {
		return "", ErrInvalidMessage
	}
	return trimText(data[5:10]), nil
}

func EncodeEvent(e Event) []byte {
	buf := make([]byte, EventSize)
	putHeader(buf, TypePayload)
	buf[5] = e.Result
	binary.BigEndian.PutUint16(buf[6:8], e.Rank)
	buf[8] = e.Suit
	return buf
}

func DecodeEvent(data []byte) (Event, error) {
	if !checkHeader(data, TypePayload, EventSize) {
		return Event{}, ErrInvalidMessage
	}
	return Event{
		Result: data[5],
		Rank:   binary.BigEndian.Uint16(data[6:8]),
		Suit:   data[8],
	}, nil
}
