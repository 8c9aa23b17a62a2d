package opcodes

// Property bits of the packed OPFLG table.
const (
	FlagJump   uint8 = 0x01 // jump:  P2 holds jmp target
	FlagIn1    uint8 = 0x02 // in1:   P1 is an input
	FlagIn2    uint8 = 0x04 // in2:   P2 is an input
	FlagIn3    uint8 = 0x08 // in3:   P3 is an input
	FlagOut2   uint8 = 0x10 // out2:  P2 is an output
	FlagOut3   uint8 = 0x20 // out3:  P3 is an output
	FlagNCycle uint8 = 0x40 // ncycle:Cycles count against P1
	FlagJump0  uint8 = 0x80 // jump0:  P2 might be zero
)

// Word packs the flags into one property byte.
func (f Flags) Word() uint8 {
	var x uint8
	if f.Jump {
		x |= FlagJump
	}
	if f.In1 {
		x |= FlagIn1
	}
	if f.In2 {
		x |= FlagIn2
	}
	if f.In3 {
		x |= FlagIn3
	}
	if f.Out2 {
		x |= FlagOut2
	}
	if f.Out3 {
		x |= FlagOut3
	}
	if f.NCycle {
		x |= FlagNCycle
	}
	if f.Jump0 {
		x |= FlagJump0
	}
	return x
}

// Word returns the property byte of the row; placeholders are always zero.
func (e Entry) Word() uint8 {
	if e.Instruction == nil {
		return 0
	}
	return e.Instruction.Flags.Word()
}

// Bitvector returns the property byte of every value 0..MaxValue.
func (t *Table) Bitvector() []uint8 {
	words := make([]uint8, len(t.Entries))
	for i, e := range t.Entries {
		words[i] = e.Word()
	}
	return words
}
