package vm

import "encoding/json"

// jsonOp/jsonFn/jsonProgram are the CLI's on-disk convenience encoding
// for a Program: plain JSON, decoded straight from mnemonic names. This
// is not the out-of-scope S0 binary format — it exists purely so
// `cmd/s0vm` has something to load without a front-end compiler.
type jsonOp struct {
	Op  string `json:"op"`
	Arg int64  `json:"arg,omitempty"`
}

type jsonGlobal struct {
	Size     uint32 `json:"size"`
	Init     []byte `json:"init,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

type jsonFn struct {
	MaxStack   uint32   `json:"max_stack"`
	ParamSlots uint32   `json:"param_slots"`
	LocSlots   uint32   `json:"loc_slots"`
	RetSlots   uint32   `json:"ret_slots"`
	Ins        []jsonOp `json:"ins"`
}

type jsonProgram struct {
	Globals   []jsonGlobal      `json:"globals"`
	Functions []jsonFn          `json:"functions"`
	Names     map[string]uint32 `json:"names,omitempty"`
}

var mnemonics = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opNames))
	for code, name := range opNames {
		m[name] = code
	}
	return m
}()

// DecodeProgramJSON parses the CLI's JSON program encoding into a
// Program ready for New.
func DecodeProgramJSON(data []byte) (*Program, error) {
	var jp jsonProgram
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, errParse(err)
	}

	p := &Program{
		Globals:   make([]Global, len(jp.Globals)),
		Functions: make([]FnDef, len(jp.Functions)),
		Names:     jp.Names,
	}
	for i, g := range jp.Globals {
		p.Globals[i] = Global{Size: g.Size, Init: g.Init, ReadOnly: g.ReadOnly}
	}
	for i, f := range jp.Functions {
		ins := make([]Op, len(f.Ins))
		for j, jo := range f.Ins {
			code, ok := mnemonics[jo.Op]
			if !ok {
				return nil, errInvalidInstruction(uint32(i), j, 0)
			}
			op := Op{Code: code}
			switch code.ParamSize() {
			case 8:
				op.U64 = uint64(jo.Arg)
			case 4:
				op.U32 = uint32(jo.Arg)
				if code == OpBr || code == OpBrFalse || code == OpBrTrue || code == OpArgA {
					op.I32 = int32(jo.Arg)
				}
			}
			ins[j] = op
		}
		p.Functions[i] = FnDef{
			MaxStack:   f.MaxStack,
			ParamSlots: f.ParamSlots,
			LocSlots:   f.LocSlots,
			RetSlots:   f.RetSlots,
			Ins:        ins,
		}
	}
	return p, nil
}
