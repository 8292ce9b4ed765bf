// Package format defines the wire-level constants of the apitrace binary
// trace format: the stream version, container magic, compression types, and
// the tag bytes that discriminate events, call details and values.
//
// The logical stream begins with a uvarint version followed by a sequence of
// events. Container files wrap the logical stream in independently
// compressed chunks; see the tracefile package.
package format

type (
	// EventType discriminates top-level records in the logical stream.
	EventType uint8
	// DetailType discriminates per-call detail records.
	DetailType uint8
	// ValueType discriminates encoded values.
	ValueType uint8
	// CompressionType identifies the codec of a container file.
	CompressionType uint8
)

// CurrentVersion is the newest stream version this build reads and writes.
// Streams with a version in [1, CurrentVersion] are accepted.
const CurrentVersion = 6

// Container file constants. The magic bytes cannot collide with a raw
// logical stream: a version uvarint's first byte is at most CurrentVersion.
const (
	ContainerMagic0 = 'a'
	ContainerMagic1 = 't'

	// DefaultChunkSize is the uncompressed chunk size container writers use.
	DefaultChunkSize = 64 * 1024
)

const (
	EventEnter EventType = 0x00 // EventEnter begins a call: thread id, function sig id, details.
	EventLeave EventType = 0x01 // EventLeave finishes a pending call: call index, details.
)

const (
	DetailEnd       DetailType = 0x00 // DetailEnd terminates a detail list.
	DetailArg       DetailType = 0x01 // DetailArg carries an argument index and value.
	DetailRet       DetailType = 0x02 // DetailRet carries the return value.
	DetailBacktrace DetailType = 0x03 // DetailBacktrace carries a stack frame sequence.
)

const (
	TypeNull    ValueType = 0x00 // no payload
	TypeFalse   ValueType = 0x01 // no payload
	TypeTrue    ValueType = 0x02 // no payload
	TypeSInt    ValueType = 0x03 // zigzag varint
	TypeUInt    ValueType = 0x04 // uvarint
	TypeFloat   ValueType = 0x05 // 4 bytes, engine byte order
	TypeDouble  ValueType = 0x06 // 8 bytes, engine byte order
	TypeString  ValueType = 0x07 // uvarint length + bytes
	TypeBlob    ValueType = 0x08 // uvarint length + bytes
	TypeEnum    ValueType = 0x09 // enum sig id (+ inline def) + nested value
	TypeBitmask ValueType = 0x0a // bitmask sig id (+ inline def) + uvarint bits
	TypeArray   ValueType = 0x0b // uvarint count + values
	TypeStruct  ValueType = 0x0c // struct sig id (+ inline def) + member values
	TypeOpaque  ValueType = 0x0d // uvarint address
	TypeRepr    ValueType = 0x0e // human varstring + machine value
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores chunks uncompressed.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard chunks.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses S2 chunks.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4 block chunks.
)

func (e EventType) String() string {
	switch e {
	case EventEnter:
		return "Enter"
	case EventLeave:
		return "Leave"
	default:
		return "Unknown"
	}
}

func (d DetailType) String() string {
	switch d {
	case DetailEnd:
		return "End"
	case DetailArg:
		return "Arg"
	case DetailRet:
		return "Ret"
	case DetailBacktrace:
		return "Backtrace"
	default:
		return "Unknown"
	}
}

func (v ValueType) String() string {
	switch v {
	case TypeNull:
		return "Null"
	case TypeFalse:
		return "False"
	case TypeTrue:
		return "True"
	case TypeSInt:
		return "SInt"
	case TypeUInt:
		return "UInt"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeBlob:
		return "Blob"
	case TypeEnum:
		return "Enum"
	case TypeBitmask:
		return "Bitmask"
	case TypeArray:
		return "Array"
	case TypeStruct:
		return "Struct"
	case TypeOpaque:
		return "Opaque"
	case TypeRepr:
		return "Repr"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	switch c {
	case CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4:
		return true
	default:
		return false
	}
}
