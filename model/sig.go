package model

// Signature ids are small dense integers assigned by first occurrence in the
// stream, unique per kind. Once registered a signature never changes.

// FunctionSig describes a traced API function: its name, the declared
// parameter names in call order, and the flags every call to it inherits.
type FunctionSig struct {
	ID     uint32
	Name   string
	Params []string
	Flags  CallFlags
}

// StructSig describes a struct value shape: name plus ordered member names.
type StructSig struct {
	ID      uint32
	Name    string
	Members []string
}

// EnumValue is one name/value pair of an enum signature.
type EnumValue struct {
	Name  string
	Value int64
}

// EnumSig describes an enumeration referenced by enum values.
type EnumSig struct {
	ID     uint32
	Values []EnumValue
}

// BitmaskFlag is one name/bit pair of a bitmask signature.
type BitmaskFlag struct {
	Name  string
	Value uint64
}

// BitmaskSig describes a bitmask referenced by bitmask values.
type BitmaskSig struct {
	ID    uint32
	Flags []BitmaskFlag
}

// StackFrame is one backtrace entry, cached by id like other signatures.
type StackFrame struct {
	ID       uint32
	Module   string
	Function string
	File     string
	Line     int
}
