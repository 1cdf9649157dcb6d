package tracelog

import (
	"math"
	"unsafe"
)

// ArgType tags the runtime representation of a TraceArgument. Per the data
// model, the tag is never stored on the TraceArgument itself: it lives in
// the owning TracepointInfo's ArgTypes, so that TraceArgument stays a bare
// value cell.
type ArgType uint8

const (
	ArgNone ArgType = iota
	ArgBool
	ArgInt64
	ArgUint64
	ArgDouble
	ArgPointer
	ArgExternalString
	ArgInlineString
)

func (t ArgType) String() string {
	switch t {
	case ArgNone:
		return "none"
	case ArgBool:
		return "bool"
	case ArgInt64:
		return "int64"
	case ArgUint64:
		return "uint64"
	case ArgDouble:
		return "double"
	case ArgPointer:
		return "pointer"
	case ArgExternalString:
		return "external_string"
	case ArgInlineString:
		return "inline_string"
	default:
		return "unknown"
	}
}

// inlineStringCap bounds the inline short-string variant: it must fit in
// the same 8-byte cell used by every other variant.
const inlineStringCap = 8

// TraceArgument is a tagged-union value cell: at most 8 raw bytes, plus a
// pointer field used only by the Pointer and ExternalString variants. The
// pointer field is split out from the raw byte cell (rather than, say,
// reinterpreting the bytes of a *string) so the garbage collector can see
// and keep alive whatever it references; storing a pointer's bytes inside a
// non-pointer-typed array would make it invisible to the GC. This is the
// one place the Go port's layout necessarily diverges from a bytewise
// union, in exchange for soundness.
type TraceArgument struct {
	raw [inlineStringCap]byte
	ptr unsafe.Pointer
}

// NoneArg constructs the empty argument.
func NoneArg() TraceArgument { return TraceArgument{} }

// BoolArg constructs a boolean argument.
func BoolArg(v bool) TraceArgument {
	var a TraceArgument
	if v {
		a.raw[0] = 1
	}
	return a
}

// Int64Arg constructs a signed integer argument.
func Int64Arg(v int64) TraceArgument {
	var a TraceArgument
	byteOrderPutUint64(a.raw[:], uint64(v))
	return a
}

// Uint64Arg constructs an unsigned integer argument.
func Uint64Arg(v uint64) TraceArgument {
	var a TraceArgument
	byteOrderPutUint64(a.raw[:], v)
	return a
}

// DoubleArg constructs a floating-point argument.
func DoubleArg(v float64) TraceArgument {
	var a TraceArgument
	byteOrderPutUint64(a.raw[:], math.Float64bits(v))
	return a
}

// PointerArg constructs an opaque-pointer argument. The pointee is not
// managed by this package; it is the caller's responsibility to keep it
// reachable for as long as the argument might be read (e.g. by an exporter
// reading a still-live chunk).
func PointerArg(p unsafe.Pointer) TraceArgument {
	return TraceArgument{ptr: p}
}

// ExternalStringArg constructs an argument referencing a string the caller
// owns. The TraceArgument keeps the string reachable via its pointer field.
func ExternalStringArg(s *string) TraceArgument {
	return TraceArgument{ptr: unsafe.Pointer(s)}
}

// InlineStringArg constructs an inline short-string argument. Only the
// first 8 bytes of s are stored; it is not null-terminated.
func InlineStringArg(s string) TraceArgument {
	var a TraceArgument
	n := len(s)
	if n > inlineStringCap {
		n = inlineStringCap
	}
	copy(a.raw[:n], s[:n])
	return a
}

// AsBool decodes the argument as a boolean.
func (a TraceArgument) AsBool() bool { return a.raw[0] != 0 }

// AsInt64 decodes the argument as a signed integer.
func (a TraceArgument) AsInt64() int64 { return int64(byteOrderUint64(a.raw[:])) }

// AsUint64 decodes the argument as an unsigned integer.
func (a TraceArgument) AsUint64() uint64 { return byteOrderUint64(a.raw[:]) }

// AsDouble decodes the argument as a float64.
func (a TraceArgument) AsDouble() float64 { return math.Float64frombits(byteOrderUint64(a.raw[:])) }

// AsPointer decodes the argument as an opaque pointer.
func (a TraceArgument) AsPointer() unsafe.Pointer { return a.ptr }

// AsExternalString decodes the argument as a pointer to a caller-owned
// string.
func (a TraceArgument) AsExternalString() *string { return (*string)(a.ptr) }

// AsInlineString decodes the argument as an inline short string of the
// given byte length (0..8, as recorded by the tracepoint's arg metadata is
// not tracked per-argument, so callers that need the exact length should
// encode it themselves, e.g. via a NUL sentinel or a fixed width).
func (a TraceArgument) AsInlineString(n int) string {
	if n > inlineStringCap {
		n = inlineStringCap
	}
	return string(a.raw[:n])
}

func byteOrderPutUint64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

func byteOrderUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
