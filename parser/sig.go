package parser

import (
	"github.com/bovinespirit/apitrace/model"
)

// Signature references share one convention across kinds: the stream carries
// the id, and the definition body follows inline iff the id is new. Each
// registered entry remembers the offset its body started at; after a
// bookmark restore, seeing a known id at exactly that offset means the body
// bytes are present again and must be consumed (and discarded), while any
// other offset means the reference is bare. Tables are append-only, so
// jumping backwards never invalidates them.

func (p *Parser) parseFunctionSig() (*model.FunctionSig, error) {
	id64, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	id := uint32(id64)
	offset := p.file.Offset()

	if entry, ok := p.functions.get(id); ok {
		if entry.fileOffset == offset {
			if _, err := p.readFunctionSigBody(id); err != nil {
				return nil, p.sigBodyError("function", id, err)
			}
		}
		return entry.sig, nil
	}

	sig, err := p.readFunctionSigBody(id)
	if err != nil {
		return nil, p.sigBodyError("function", id, err)
	}
	p.functions.put(id, sig, offset)

	return sig, nil
}

func (p *Parser) readFunctionSigBody(id uint32) (*model.FunctionSig, error) {
	name, err := p.readString()
	if err != nil {
		return nil, err
	}
	count, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	params := make([]string, count)
	for i := range params {
		if params[i], err = p.readString(); err != nil {
			return nil, err
		}
	}

	return &model.FunctionSig{
		ID:     id,
		Name:   name,
		Params: params,
		Flags:  lookupCallFlags(name),
	}, nil
}

func (p *Parser) parseStructSig() (*model.StructSig, error) {
	id64, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	id := uint32(id64)
	offset := p.file.Offset()

	if entry, ok := p.structs.get(id); ok {
		if entry.fileOffset == offset {
			if _, err := p.readStructSigBody(id); err != nil {
				return nil, p.sigBodyError("struct", id, err)
			}
		}
		return entry.sig, nil
	}

	sig, err := p.readStructSigBody(id)
	if err != nil {
		return nil, p.sigBodyError("struct", id, err)
	}
	p.structs.put(id, sig, offset)

	return sig, nil
}

func (p *Parser) readStructSigBody(id uint32) (*model.StructSig, error) {
	name, err := p.readString()
	if err != nil {
		return nil, err
	}
	count, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	members := make([]string, count)
	for i := range members {
		if members[i], err = p.readString(); err != nil {
			return nil, err
		}
	}

	return &model.StructSig{ID: id, Name: name, Members: members}, nil
}

func (p *Parser) parseEnumSig() (*model.EnumSig, error) {
	id64, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	id := uint32(id64)
	offset := p.file.Offset()

	if entry, ok := p.enums.get(id); ok {
		if entry.fileOffset == offset {
			if _, err := p.readEnumSigBody(id); err != nil {
				return nil, p.sigBodyError("enum", id, err)
			}
		}
		return entry.sig, nil
	}

	sig, err := p.readEnumSigBody(id)
	if err != nil {
		return nil, p.sigBodyError("enum", id, err)
	}
	p.enums.put(id, sig, offset)

	return sig, nil
}

func (p *Parser) readEnumSigBody(id uint32) (*model.EnumSig, error) {
	count, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	values := make([]model.EnumValue, count)
	for i := range values {
		if values[i].Name, err = p.readString(); err != nil {
			return nil, err
		}
		if values[i].Value, err = p.readSint(); err != nil {
			return nil, err
		}
	}

	return &model.EnumSig{ID: id, Values: values}, nil
}

func (p *Parser) parseBitmaskSig() (*model.BitmaskSig, error) {
	id64, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	id := uint32(id64)
	offset := p.file.Offset()

	if entry, ok := p.bitmasks.get(id); ok {
		if entry.fileOffset == offset {
			if _, err := p.readBitmaskSigBody(id); err != nil {
				return nil, p.sigBodyError("bitmask", id, err)
			}
		}
		return entry.sig, nil
	}

	sig, err := p.readBitmaskSigBody(id)
	if err != nil {
		return nil, p.sigBodyError("bitmask", id, err)
	}
	p.bitmasks.put(id, sig, offset)

	return sig, nil
}

func (p *Parser) readBitmaskSigBody(id uint32) (*model.BitmaskSig, error) {
	count, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	flags := make([]model.BitmaskFlag, count)
	for i := range flags {
		if flags[i].Name, err = p.readString(); err != nil {
			return nil, err
		}
		if flags[i].Value, err = p.readUvarint(); err != nil {
			return nil, err
		}
	}

	return &model.BitmaskSig{ID: id, Flags: flags}, nil
}

// parseStackFrame decodes one backtrace entry, lazily registering its frame
// signature like any other kind.
func (p *Parser) parseStackFrame() (*model.StackFrame, error) {
	id64, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	id := uint32(id64)
	offset := p.file.Offset()

	if entry, ok := p.frames.get(id); ok {
		if entry.fileOffset == offset {
			if _, err := p.readStackFrameBody(id); err != nil {
				return nil, p.sigBodyError("frame", id, err)
			}
		}
		return entry.sig, nil
	}

	frame, err := p.readStackFrameBody(id)
	if err != nil {
		return nil, p.sigBodyError("frame", id, err)
	}
	p.frames.put(id, frame, offset)

	return frame, nil
}

func (p *Parser) readStackFrameBody(id uint32) (*model.StackFrame, error) {
	module, err := p.readString()
	if err != nil {
		return nil, err
	}
	function, err := p.readString()
	if err != nil {
		return nil, err
	}
	file, err := p.readString()
	if err != nil {
		return nil, err
	}
	line, err := p.readUvarint()
	if err != nil {
		return nil, err
	}

	return &model.StackFrame{
		ID:       id,
		Module:   module,
		Function: function,
		File:     file,
		Line:     int(line),
	}, nil
}
