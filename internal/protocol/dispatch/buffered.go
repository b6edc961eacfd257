package dispatch

import (
	"errors"
	"io"

	"github.com/danmuck/tagwire/internal/observability"
)

// PacketStatus reports the state of the request being loaded.
type PacketStatus int

const (
	// PacketLoading: the request is incomplete.
	PacketLoading PacketStatus = iota
	// PacketDropped: the request was discarded (unknown tag or unencodable result).
	PacketDropped
	// PacketResolved: the request completed and its response is queued for output.
	PacketResolved
)

func (s PacketStatus) String() string {
	switch s {
	case PacketLoading:
		return "loading"
	case PacketDropped:
		return "dropped"
	case PacketResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Buffered loads requests one byte at a time and queues responses for
// output. Field widths frame the stream, so no length prefix is needed.
// Input and output are independent: a new request may load while earlier
// responses drain. A Buffered is not safe for concurrent use.
type Buffered struct {
	d      *Dispatcher
	target *slot
	need   int
	in     []byte
	out    []byte
	next   int
}

func NewBuffered(d *Dispatcher) *Buffered {
	return &Buffered{
		d:   d,
		in:  make([]byte, 0, 8),
		out: make([]byte, 0, 64),
	}
}

// Put feeds one input byte.
func (b *Buffered) Put(c byte) (PacketStatus, error) {
	if b.target == nil {
		s, err := b.d.lookup(c)
		if err != nil {
			observability.RecordResolve(tagLabel(c), observability.ResolveUnknownTag)
			return PacketDropped, err
		}
		b.target = s
		b.need = s.field.Width()
		b.in = b.in[:0]
		if b.need == 0 {
			return b.complete()
		}
		return PacketLoading, nil
	}
	b.in = append(b.in, c)
	b.need--
	if b.need > 0 {
		return PacketLoading, nil
	}
	return b.complete()
}

func (b *Buffered) complete() (PacketStatus, error) {
	s := b.target
	b.target = nil
	resp, err := b.d.resolve(s, b.in)
	b.in = b.in[:0]
	if err != nil {
		return PacketDropped, err
	}
	b.out = append(b.out, resp...)
	return PacketResolved, nil
}

// LoadFrom loads bytes from r until one request resolves or is dropped.
// A stream ending mid-request reports io.ErrUnexpectedEOF.
func (b *Buffered) LoadFrom(r io.ByteReader) (PacketStatus, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && b.target != nil {
				return PacketLoading, io.ErrUnexpectedEOF
			}
			return PacketLoading, err
		}
		status, err := b.Put(c)
		if status != PacketLoading {
			return status, err
		}
	}
}

// Loading reports whether a partial request is buffered.
func (b *Buffered) Loading() bool { return b.target != nil }

// Loaded reports whether output is waiting to be drained.
func (b *Buffered) Loaded() bool { return b.next < len(b.out) }

// Pending returns the number of undrained output bytes.
func (b *Buffered) Pending() int { return len(b.out) - b.next }

// Get pops one output byte.
func (b *Buffered) Get() (byte, bool) {
	if !b.Loaded() {
		return 0, false
	}
	c := b.out[b.next]
	b.next++
	b.compact()
	return c, true
}

// WriteTo drains all queued output to w.
func (b *Buffered) WriteTo(w io.Writer) (int64, error) {
	if !b.Loaded() {
		return 0, nil
	}
	n, err := w.Write(b.out[b.next:])
	b.next += n
	b.compact()
	return int64(n), err
}

// Reset discards a partially loaded request. Queued output is kept.
func (b *Buffered) Reset() {
	b.target = nil
	b.need = 0
	b.in = b.in[:0]
}

func (b *Buffered) compact() {
	if b.next == len(b.out) {
		b.out = b.out[:0]
		b.next = 0
	}
}
