package speeddaemon

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MessageType is the first byte of every message and identifies the fields that follow it.
type MessageType uint8

const (
	ErrorMessageType         MessageType = 0x10
	PlateMessageType         MessageType = 0x20
	TicketMessageType        MessageType = 0x21
	WantHeartbeatMessageType MessageType = 0x40
	HeartbeatMessageType     MessageType = 0x41
	IAmCameraMessageType     MessageType = 0x80
	IAmDispatcherMessageType MessageType = 0x81
)

func (t MessageType) String() string {
	switch t {
	case ErrorMessageType:
		return "Error"
	case PlateMessageType:
		return "Plate"
	case TicketMessageType:
		return "Ticket"
	case WantHeartbeatMessageType:
		return "WantHeartbeat"
	case HeartbeatMessageType:
		return "Heartbeat"
	case IAmCameraMessageType:
		return "IAmCamera"
	case IAmDispatcherMessageType:
		return "IAmDispatcher"
	default:
		return fmt.Sprintf("%02X", uint8(t))
	}
}

// A Message is any message of the protocol.
//
// Each message starts with a single u8 specifying the message type, followed by the fields of that type.
// Integers are big-endian. A str is a single u8 containing the length, followed by that many bytes.
type Message interface {
	encoding.BinaryMarshaler
	Type() MessageType
}

// ErrStringTooLong is returned when marshaling a str field longer than 255 bytes.
var ErrStringTooLong = errors.New("string longer than 255 bytes")

// An ErrorMessage is sent by the server to a client that did something this protocol declares an error.
type ErrorMessage struct {
	Msg string
}

func (m *ErrorMessage) Type() MessageType { return ErrorMessageType }

func (m *ErrorMessage) MarshalBinary() ([]byte, error) {
	return appendString([]byte{byte(ErrorMessageType)}, m.Msg)
}

func readErrorMessage(r io.Reader) (*ErrorMessage, error) {
	msg, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("error reading msg: %w", err)
	}
	return &ErrorMessage{Msg: msg}, nil
}

// A PlateMessage is sent by a camera when it observes a car.
type PlateMessage struct {
	Plate     string
	Timestamp uint32
}

func (m *PlateMessage) Type() MessageType { return PlateMessageType }

func (m *PlateMessage) MarshalBinary() ([]byte, error) {
	data, err := appendString([]byte{byte(PlateMessageType)}, m.Plate)
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint32(data, m.Timestamp), nil
}

func readPlateMessage(r io.Reader) (*PlateMessage, error) {
	plate, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("error reading plate: %w", err)
	}
	m := &PlateMessage{Plate: plate}
	if err := binary.Read(r, binary.BigEndian, &m.Timestamp); err != nil {
		return nil, fmt.Errorf("error reading timestamp: %w", err)
	}
	return m, nil
}

// A TicketMessage is sent by the server to a dispatcher responsible for the road a car was speeding on.
//
// Mile1 and Timestamp1 refer to the earlier of the 2 observations, Mile2 and Timestamp2 to the later one.
// Speed is the average speed of the car between the two observations, in 100x miles per hour.
type TicketMessage struct {
	Plate      string
	Road       uint16
	Mile1      uint16
	Timestamp1 uint32
	Mile2      uint16
	Timestamp2 uint32
	Speed      uint16
}

func (m *TicketMessage) Type() MessageType { return TicketMessageType }

func (m *TicketMessage) MarshalBinary() ([]byte, error) {
	data, err := appendString([]byte{byte(TicketMessageType)}, m.Plate)
	if err != nil {
		return nil, err
	}
	data = binary.BigEndian.AppendUint16(data, m.Road)
	data = binary.BigEndian.AppendUint16(data, m.Mile1)
	data = binary.BigEndian.AppendUint32(data, m.Timestamp1)
	data = binary.BigEndian.AppendUint16(data, m.Mile2)
	data = binary.BigEndian.AppendUint32(data, m.Timestamp2)
	return binary.BigEndian.AppendUint16(data, m.Speed), nil
}

func readTicketMessage(r io.Reader) (*TicketMessage, error) {
	plate, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("error reading plate: %w", err)
	}
	m := &TicketMessage{Plate: plate}
	fields := []any{&m.Road, &m.Mile1, &m.Timestamp1, &m.Mile2, &m.Timestamp2, &m.Speed}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return nil, fmt.Errorf("error reading ticket: %w", err)
		}
	}
	return m, nil
}

// A WantHeartbeatMessage requests the server to send a Heartbeat every Interval deciseconds.
// An Interval of 0 requests no heartbeats.
type WantHeartbeatMessage struct {
	Interval uint32
}

func (m *WantHeartbeatMessage) Type() MessageType { return WantHeartbeatMessageType }

func (m *WantHeartbeatMessage) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint32([]byte{byte(WantHeartbeatMessageType)}, m.Interval), nil
}

func readWantHeartbeatMessage(r io.Reader) (*WantHeartbeatMessage, error) {
	m := &WantHeartbeatMessage{}
	if err := binary.Read(r, binary.BigEndian, &m.Interval); err != nil {
		return nil, fmt.Errorf("error reading interval: %w", err)
	}
	return m, nil
}

// A HeartbeatMessage is sent by the server at the interval requested by the client.
type HeartbeatMessage struct{}

func (m *HeartbeatMessage) Type() MessageType { return HeartbeatMessageType }

func (m *HeartbeatMessage) MarshalBinary() ([]byte, error) {
	return []byte{byte(HeartbeatMessageType)}, nil
}

// An IAmCameraMessage identifies a client as a camera.
type IAmCameraMessage struct {
	Road  uint16
	Mile  uint16
	Limit uint16
}

func (m *IAmCameraMessage) Type() MessageType { return IAmCameraMessageType }

func (m *IAmCameraMessage) MarshalBinary() ([]byte, error) {
	data := []byte{byte(IAmCameraMessageType)}
	data = binary.BigEndian.AppendUint16(data, m.Road)
	data = binary.BigEndian.AppendUint16(data, m.Mile)
	return binary.BigEndian.AppendUint16(data, m.Limit), nil
}

func readIAmCameraMessage(r io.Reader) (*IAmCameraMessage, error) {
	m := &IAmCameraMessage{}
	if err := binary.Read(r, binary.BigEndian, m); err != nil {
		return nil, fmt.Errorf("error reading IAmCamera message: %w", err)
	}
	return m, nil
}

// An IAmDispatcherMessage identifies a client as a ticket dispatcher for the given roads.
type IAmDispatcherMessage struct {
	Roads []uint16
}

func (m *IAmDispatcherMessage) Type() MessageType { return IAmDispatcherMessageType }

func (m *IAmDispatcherMessage) MarshalBinary() ([]byte, error) {
	if len(m.Roads) > math.MaxUint8 {
		return nil, fmt.Errorf("too many roads: %d", len(m.Roads))
	}
	data := []byte{byte(IAmDispatcherMessageType), uint8(len(m.Roads))}
	for _, road := range m.Roads {
		data = binary.BigEndian.AppendUint16(data, road)
	}
	return data, nil
}

func readIAmDispatcherMessage(r io.Reader) (*IAmDispatcherMessage, error) {
	var n uint8
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("error reading numroads: %w", err)
	}
	roads := make([]uint16, n)
	if n > 0 {
		if err := binary.Read(r, binary.BigEndian, roads); err != nil {
			return nil, fmt.Errorf("error reading roads: %w", err)
		}
	}
	return &IAmDispatcherMessage{Roads: roads}, nil
}

func appendString(data []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint8 {
		return nil, ErrStringTooLong
	}
	data = append(data, uint8(len(s)))
	return append(data, s...), nil
}

func readString(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
