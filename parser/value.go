package parser

import (
	"fmt"
	"io"

	"github.com/bovinespirit/apitrace/errs"
	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/model"
)

// parseValue decodes one value tree. Both modes follow the identical
// structural walk and consume identical byte counts; skipping mode only
// omits the leaf materialization. Signature ids referenced by enum, bitmask
// and struct values are resolved and registered in both modes, since the
// bytes must be consumed either way and later references depend on the
// table entries.
func (p *Parser) parseValue(m mode) (model.Value, error) {
	tag, err := p.file.ReadByte()
	if err != nil {
		return nil, p.truncated(err)
	}

	switch format.ValueType(tag) {
	case format.TypeNull:
		if m == modeScan {
			return nil, nil
		}
		return model.Null{}, nil

	case format.TypeFalse:
		if m == modeScan {
			return nil, nil
		}
		return model.Bool(false), nil

	case format.TypeTrue:
		if m == modeScan {
			return nil, nil
		}
		return model.Bool(true), nil

	case format.TypeSInt:
		v, err := p.readSint()
		if err != nil || m == modeScan {
			return nil, err
		}
		return model.SInt(v), nil

	case format.TypeUInt:
		v, err := p.readUvarint()
		if err != nil || m == modeScan {
			return nil, err
		}
		return model.UInt(v), nil

	case format.TypeFloat:
		if m == modeScan {
			return nil, p.skipBytes(4)
		}
		v, err := p.readFloat()
		if err != nil {
			return nil, err
		}
		return model.Float(v), nil

	case format.TypeDouble:
		if m == modeScan {
			return nil, p.skipBytes(8)
		}
		v, err := p.readDouble()
		if err != nil {
			return nil, err
		}
		return model.Double(v), nil

	case format.TypeString:
		if m == modeScan {
			return nil, p.skipString()
		}
		s, err := p.readString()
		if err != nil {
			return nil, err
		}
		return model.String(s), nil

	case format.TypeBlob:
		return p.parseBlob(m)

	case format.TypeEnum:
		sig, err := p.parseEnumSig()
		if err != nil {
			return nil, err
		}
		under, err := p.parseValue(m)
		if err != nil || m == modeScan {
			return nil, err
		}
		return model.Enum{Sig: sig, Value: under}, nil

	case format.TypeBitmask:
		sig, err := p.parseBitmaskSig()
		if err != nil {
			return nil, err
		}
		bits, err := p.readUvarint()
		if err != nil || m == modeScan {
			return nil, err
		}
		return model.Bitmask{Sig: sig, Value: bits}, nil

	case format.TypeArray:
		return p.parseArray(m)

	case format.TypeStruct:
		return p.parseStruct(m)

	case format.TypeOpaque:
		v, err := p.readUvarint()
		if err != nil || m == modeScan {
			return nil, err
		}
		return model.Opaque(v), nil

	case format.TypeRepr:
		return p.parseRepr(m)

	default:
		return nil, fmt.Errorf("%w: 0x%02x at offset %d",
			errs.ErrUnknownValue, tag, p.file.Offset()-1)
	}
}

func (p *Parser) parseBlob(m mode) (model.Value, error) {
	n, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > maxAlloc {
		return nil, fmt.Errorf("%w: blob of %d bytes at offset %d",
			errs.ErrTruncated, n, p.file.Offset())
	}
	if m == modeScan {
		return nil, p.skipBytes(int64(n))
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(p.file, data); err != nil {
		return nil, p.truncated(err)
	}

	return model.Blob(data), nil
}

func (p *Parser) parseArray(m mode) (model.Value, error) {
	count, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	if count > maxAlloc {
		return nil, fmt.Errorf("%w: array of %d elements at offset %d",
			errs.ErrTruncated, count, p.file.Offset())
	}

	var values []model.Value
	if m == modeFull {
		values = make([]model.Value, 0, count)
	}
	for i := uint64(0); i < count; i++ {
		v, err := p.parseValue(m)
		if err != nil {
			return nil, err
		}
		if m == modeFull {
			values = append(values, v)
		}
	}
	if m == modeScan {
		return nil, nil
	}

	return model.Array{Values: values}, nil
}

func (p *Parser) parseStruct(m mode) (model.Value, error) {
	sig, err := p.parseStructSig()
	if err != nil {
		return nil, err
	}

	var members []model.Value
	if m == modeFull {
		members = make([]model.Value, 0, len(sig.Members))
	}
	for range sig.Members {
		v, err := p.parseValue(m)
		if err != nil {
			return nil, err
		}
		if m == modeFull {
			members = append(members, v)
		}
	}
	if m == modeScan {
		return nil, nil
	}

	return model.Struct{Sig: sig, Members: members}, nil
}

func (p *Parser) parseRepr(m mode) (model.Value, error) {
	if m == modeScan {
		if err := p.skipString(); err != nil {
			return nil, err
		}
		return p.parseValue(m)
	}

	text, err := p.readString()
	if err != nil {
		return nil, err
	}
	machine, err := p.parseValue(m)
	if err != nil {
		return nil, err
	}

	return model.Repr{Text: text, Value: machine}, nil
}

func (p *Parser) skipBytes(n int64) error {
	if err := p.file.Skip(n); err != nil {
		return p.truncated(err)
	}

	return nil
}
