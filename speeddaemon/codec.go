package speeddaemon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
)

// A Decoder reads messages from a byte stream.
//
// Message boundaries need not line up with the reads of the underlying stream: the Decoder buffers partial reads
// until a full message is available.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the next message.
//
// It returns io.EOF if the stream ends cleanly between two messages. A stream ending part way through a message
// is reported as ErrTruncatedMessage, and an unrecognized type byte as ErrUnknownMessageType.
func (d *Decoder) Decode() (Message, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}

	t := MessageType(b)
	m, err := d.decodeBody(t)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %s", ErrTruncatedMessage, t)
	}
	return m, err
}

func (d *Decoder) decodeBody(t MessageType) (Message, error) {
	switch t {
	case ErrorMessageType:
		return readErrorMessage(d.r)
	case PlateMessageType:
		return readPlateMessage(d.r)
	case TicketMessageType:
		return readTicketMessage(d.r)
	case WantHeartbeatMessageType:
		return readWantHeartbeatMessage(d.r)
	case HeartbeatMessageType:
		return &HeartbeatMessage{}, nil
	case IAmCameraMessageType:
		return readIAmCameraMessage(d.r)
	case IAmDispatcherMessageType:
		return readIAmDispatcherMessage(d.r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, t)
	}
}

// Messages returns the messages of the stream in order.
//
// The sequence stops after the first error; a clean end of stream yields no error.
// It is not restartable.
func (d *Decoder) Messages() iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for {
			m, err := d.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(m, err) || err != nil {
				return
			}
		}
	}
}
