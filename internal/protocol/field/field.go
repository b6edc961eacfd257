package field

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxWidth is the widest payload a field can declare; values are uint64.
	MaxWidth = 8
	// TagSize is the envelope prefix length.
	TagSize = 1
)

// Field is an immutable tag/width descriptor. Fields are only created by a Registry.
type Field struct {
	tag   uint8
	width int
	name  string
}

func (f Field) Tag() uint8 { return f.tag }

func (f Field) Width() int { return f.width }

func (f Field) Name() string { return f.name }

// Void reports whether the field carries no payload.
func (f Field) Void() bool { return f.width == 0 }

// Size returns the full envelope length (tag + payload).
func (f Field) Size() int { return TagSize + f.width }

// MaxValue returns the largest value that fits in the field's width.
func (f Field) MaxValue() uint64 {
	if f.width >= MaxWidth {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(f.width)) - 1
}

// Fits reports whether v can be encoded without loss.
func (f Field) Fits(v uint64) bool {
	return v <= f.MaxValue()
}

func (f Field) String() string {
	if f.name != "" {
		return fmt.Sprintf("%s(tag=%d width=%d)", f.name, f.tag, f.width)
	}
	return fmt.Sprintf("field(tag=%d width=%d)", f.tag, f.width)
}

// Encode returns tag ++ LE(value). Void fields ignore any supplied value;
// other fields require exactly one.
func (f Field) Encode(value ...uint64) ([]byte, error) {
	return f.AppendEncode(make([]byte, 0, f.Size()), value...)
}

// AppendEncode appends the encoded envelope to dst.
func (f Field) AppendEncode(dst []byte, value ...uint64) ([]byte, error) {
	if f.width == 0 {
		return append(dst, f.tag), nil
	}
	switch len(value) {
	case 0:
		return dst, fmt.Errorf("%w: %s", ErrValueRequired, f)
	case 1:
	default:
		return dst, fmt.Errorf("%w: %s got %d", ErrTooManyValues, f, len(value))
	}
	v := value[0]
	if !f.Fits(v) {
		return dst, fmt.Errorf("%w: %d does not fit %s", ErrValueOutOfRange, v, f)
	}
	var buf [MaxWidth]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	dst = append(dst, f.tag)
	return append(dst, buf[:f.width]...), nil
}

// Decode reads the payload value from buf (tag already stripped).
// ok is false when buf is empty. Short buffers decode the bytes present;
// bytes beyond the width are ignored. A void field decodes its first byte.
func (f Field) Decode(buf []byte) (value uint64, ok bool) {
	if len(buf) == 0 {
		return 0, false
	}
	n := f.width
	if n == 0 {
		n = 1
	}
	if n > len(buf) {
		n = len(buf)
	}
	var tmp [MaxWidth]byte
	copy(tmp[:], buf[:n])
	return binary.LittleEndian.Uint64(tmp[:]), true
}
