// Package header renders an allocated opcode table. The default form is the
// C header compiled by the engine; manifests and a Go source form are offered
// for tooling.
package header

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/colorfulnotion/opcodeh/config"
	log "github.com/colorfulnotion/opcodeh/log"
	"github.com/colorfulnotion/opcodeh/opcerrors"
	"github.com/colorfulnotion/opcodeh/opcodes"
)

// Options controls rendering.
type Options struct {
	Format       string
	MaxJumpMacro string
	OpcodePrefix string
	GoPackage    string
}

// OptionsFromConfig copies the rendering settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Format:       cfg.Format,
		MaxJumpMacro: cfg.MaxJumpMacro,
		OpcodePrefix: cfg.OpcodePrefix,
		GoPackage:    cfg.GoPackage,
	}
}

// Render writes t to w in the selected format. Nothing is written when
// rendering fails.
func Render(w io.Writer, t *opcodes.Table, opts Options) error {
	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case config.FormatC, "":
		renderC(&buf, t, opts.MaxJumpMacro)
	case config.FormatJSON:
		err = renderJSON(&buf, t)
	case config.FormatYAML:
		err = renderYAML(&buf, t)
	case config.FormatGo:
		err = renderGo(&buf, t, opts)
	default:
		err = fmt.Errorf("%w: %q", opcerrors.ErrUnknownFormat, opts.Format)
	}
	if err != nil {
		return err
	}
	log.Debug(log.EmitMonitoring, "rendered", "format", opts.Format, "bytes", buf.Len(), "rows", len(t.Entries))
	_, err = w.Write(buf.Bytes())
	return err
}

// Comment returns the documentation comment of a row: the jump marker,
// the aliased token and the synopsis, comma separated.
func Comment(e opcodes.Entry) string {
	ins := e.Instruction
	if ins == nil {
		return ""
	}
	var parts []string
	switch {
	case ins.Flags.Jump0:
		parts = append(parts, "jump0")
	case ins.Flags.Jump:
		parts = append(parts, "jump")
	}
	if ins.SameAs != "" {
		parts = append(parts, "same as "+ins.SameAs)
	}
	if ins.Synopsis != "" {
		parts = append(parts, "synopsis: "+ins.Synopsis)
	}
	return strings.Join(parts, ", ")
}

const flagLegend = `/* Properties such as "out2" or "jump" that are specified in
** comments following the "case" for each opcode in the vdbe.c
** are encoded into bitvectors as follows:
*/
#define OPFLG_JUMP        0x01  /* jump:  P2 holds jmp target */
#define OPFLG_IN1         0x02  /* in1:   P1 is an input */
#define OPFLG_IN2         0x04  /* in2:   P2 is an input */
#define OPFLG_IN3         0x08  /* in3:   P3 is an input */
#define OPFLG_OUT2        0x10  /* out2:  P2 is an output */
#define OPFLG_OUT3        0x20  /* out3:  P3 is an output */
#define OPFLG_NCYCLE      0x40  /* ncycle:Cycles count against P1 */
#define OPFLG_JUMP0       0x80  /* jump0:  P2 might be zero */
`

const maxJumpNote = `/* The resolve3P2Values() routine is able to run faster if it knows
** the value of the largest JUMP opcode.  The smaller the maximum
** JUMP opcode the better, so the mkopcodeh command that
** generated this include file strives to group all JUMP opcodes
** together near the beginning of the list.
*/
`

func renderC(buf *bytes.Buffer, t *opcodes.Table, maxJumpMacro string) {
	buf.WriteString("/* Automatically generated.  Do not edit */\n")
	buf.WriteString("/* See the mkopcodeh command for details */\n")
	for _, e := range t.Entries {
		fmt.Fprintf(buf, "#define %-16s %3d", e.Name, e.Value)
		if c := Comment(e); c != "" {
			fmt.Fprintf(buf, " /* %-42s */", c)
		}
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.WriteString(flagLegend)
	buf.WriteString("#define OPFLG_INITIALIZER {\\\n")
	writeWords(buf, t.Bitvector(), "", "\\")
	buf.WriteString("}\n")

	buf.WriteByte('\n')
	buf.WriteString(maxJumpNote)
	fmt.Fprintf(buf, "#define %s  %d  /* Maximum JUMP opcode */\n", maxJumpMacro, t.MaxJump)
}

// writeWords writes the packed property table eight words per line, each line
// led by the index of its first word.
func writeWords(buf *bytes.Buffer, words []uint8, indent, eol string) {
	for i, x := range words {
		if i%8 == 0 {
			fmt.Fprintf(buf, "%s/* %3d */", indent, i)
		}
		fmt.Fprintf(buf, " 0x%02x,", x)
		if i%8 == 7 {
			buf.WriteString(eol)
			buf.WriteByte('\n')
		}
	}
}
