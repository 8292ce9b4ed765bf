package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one decoded argument or return value. It is a closed tagged
// variant: consumers switch on the concrete type. Arrays and structs own
// their children and blobs own their bytes; values form trees, never cycles,
// because they are decoded top-down exactly once.
type Value interface {
	// String renders the value for dumps and error messages.
	String() string
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// SInt is a signed integer value.
type SInt int64

// UInt is an unsigned integer value.
type UInt uint64

// Float is a 32-bit float value.
type Float float32

// Double is a 64-bit float value.
type Double float64

// String is a text value.
type String string

// Blob is a raw byte payload.
type Blob []byte

// Enum is an enum reference with its underlying decoded value.
type Enum struct {
	Sig   *EnumSig
	Value Value
}

// Bitmask is a bitmask reference with the decoded bit pattern.
type Bitmask struct {
	Sig   *BitmaskSig
	Value uint64
}

// Array is an ordered sequence of values.
type Array struct {
	Values []Value
}

// Struct is a struct signature reference with one value per member.
type Struct struct {
	Sig     *StructSig
	Members []Value
}

// Opaque is an address-sized handle with no decoded interior.
type Opaque uint64

// Repr pairs a human-readable rendering with the machine value it stands for.
type Repr struct {
	Text  string
	Value Value
}

func (Null) String() string     { return "NULL" }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v SInt) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v UInt) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v Float) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string { return strconv.Quote(string(v)) }
func (v Opaque) String() string { return fmt.Sprintf("0x%x", uint64(v)) }

func (v Blob) String() string {
	return fmt.Sprintf("blob(%d)", len(v))
}

func (v Enum) String() string {
	if v.Sig != nil {
		if sv, ok := v.Value.(SInt); ok {
			for _, ev := range v.Sig.Values {
				if ev.Value == int64(sv) {
					return ev.Name
				}
			}
		}
	}

	return v.Value.String()
}

func (v Bitmask) String() string {
	if v.Sig == nil {
		return fmt.Sprintf("0x%x", v.Value)
	}

	var names []string
	remaining := v.Value
	for _, f := range v.Sig.Flags {
		if f.Value != 0 && remaining&f.Value == f.Value {
			names = append(names, f.Name)
			remaining &^= f.Value
		}
	}
	if remaining != 0 || len(names) == 0 {
		names = append(names, fmt.Sprintf("0x%x", remaining))
	}

	return strings.Join(names, " | ")
}

func (v Array) String() string {
	parts := make([]string, len(v.Values))
	for i, e := range v.Values {
		parts[i] = e.String()
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func (v Struct) String() string {
	parts := make([]string, len(v.Members))
	for i, m := range v.Members {
		name := ""
		if v.Sig != nil && i < len(v.Sig.Members) {
			name = v.Sig.Members[i] + " = "
		}
		parts[i] = name + m.String()
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func (v Repr) String() string {
	return v.Text
}
