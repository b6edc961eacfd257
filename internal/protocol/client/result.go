package client

// ResultKind discriminates Result.
type ResultKind int

const (
	KindNone ResultKind = iota
	KindBytes
	KindDecoded
)

func (k ResultKind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindDecoded:
		return "decoded"
	default:
		return "none"
	}
}

// Result is what a transport resolves a request with: either the raw reply
// payload (tag stripped) or a value the transport already decoded.
type Result struct {
	kind  ResultKind
	raw   []byte
	value uint64
}

// Bytes wraps a raw reply payload. b is copied.
func Bytes(b []byte) Result {
	raw := make([]byte, len(b))
	copy(raw, b)
	return Result{kind: KindBytes, raw: raw}
}

// Decoded wraps a value that needs no decoding.
func Decoded(v uint64) Result {
	return Result{kind: KindDecoded, value: v}
}

func (r Result) Kind() ResultKind { return r.kind }

func (r Result) Raw() ([]byte, bool) {
	if r.kind != KindBytes {
		return nil, false
	}
	return r.raw, true
}

func (r Result) Value() (uint64, bool) {
	if r.kind != KindDecoded {
		return 0, false
	}
	return r.value, true
}
