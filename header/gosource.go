package header

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"github.com/colorfulnotion/opcodeh/opcodes"
)

// GoName turns an opcode name into an exported Go identifier:
// OP_SeekGE becomes OpSeekGE.
func GoName(name, prefix string) string {
	return "Op" + strings.TrimPrefix(name, prefix)
}

func renderGo(buf *bytes.Buffer, t *opcodes.Table, opts Options) error {
	pkg := opts.GoPackage
	if pkg == "" {
		pkg = "vdbe"
	}
	var src bytes.Buffer
	src.WriteString("// Code generated by mkopcodeh; DO NOT EDIT.\n\n")
	fmt.Fprintf(&src, "package %s\n\n", pkg)
	src.WriteString("// Opcode is a VDBE instruction code.\ntype Opcode uint8\n\n")

	src.WriteString("const (\n")
	for _, e := range t.Entries {
		fmt.Fprintf(&src, "\t%s Opcode = %d", GoName(e.Name, opts.OpcodePrefix), e.Value)
		if c := Comment(e); c != "" {
			fmt.Fprintf(&src, " // %s", c)
		}
		src.WriteByte('\n')
	}
	src.WriteString(")\n\n")

	src.WriteString("// Property bits of opcodeProperties.\nconst (\n")
	for _, f := range []struct {
		name string
		bit  uint8
	}{
		{"OpflgJump", opcodes.FlagJump},
		{"OpflgIn1", opcodes.FlagIn1},
		{"OpflgIn2", opcodes.FlagIn2},
		{"OpflgIn3", opcodes.FlagIn3},
		{"OpflgOut2", opcodes.FlagOut2},
		{"OpflgOut3", opcodes.FlagOut3},
		{"OpflgNCycle", opcodes.FlagNCycle},
		{"OpflgJump0", opcodes.FlagJump0},
	} {
		fmt.Fprintf(&src, "\t%s uint8 = 0x%02x\n", f.name, f.bit)
	}
	src.WriteString(")\n\n")

	words := t.Bitvector()
	src.WriteString("var opcodeProperties = [...]uint8{\n")
	writeWords(&src, words, "\t", "")
	if len(words)%8 != 0 {
		src.WriteByte('\n')
	}
	src.WriteString("}\n\n")

	src.WriteString("var opcodeNames = [...]string{\n")
	for _, e := range t.Entries {
		fmt.Fprintf(&src, "\t%q,\n", e.Name)
	}
	src.WriteString("}\n\n")

	src.WriteString("// Properties returns the property bits of op.\n")
	src.WriteString("func (op Opcode) Properties() uint8 {\n\tif int(op) < len(opcodeProperties) {\n\t\treturn opcodeProperties[op]\n\t}\n\treturn 0\n}\n\n")
	src.WriteString("func (op Opcode) String() string {\n\tif int(op) < len(opcodeNames) {\n\t\treturn opcodeNames[op]\n\t}\n\treturn \"OP_Unknown\"\n}\n\n")

	src.WriteString("// MaxJumpOpcode is the largest jump opcode, or -1 when there is none.\n")
	fmt.Fprintf(&src, "const MaxJumpOpcode = %d\n", t.MaxJump)

	out, err := format.Source(src.Bytes())
	if err != nil {
		return fmt.Errorf("format generated go source: %w", err)
	}
	buf.Write(out)
	return nil
}
