package header

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/colorfulnotion/opcodeh/config"
	"github.com/colorfulnotion/opcodeh/opcerrors"
	"github.com/colorfulnotion/opcodeh/opcodes"
)

// smallTable yields Init 0, Goto 1, Halt 2, a placeholder at 3 and Add 4.
func smallTable(t *testing.T) *opcodes.Table {
	t.Helper()
	instrs := []*opcodes.Instruction{
		opcodes.NewInstruction("OP_Init", "jump0"),
		opcodes.NewInstruction("OP_Goto", "jump"),
		opcodes.NewInstruction("OP_Add", "same as TK_ADD, in1, in2, out3"),
		opcodes.NewInstruction("OP_Halt", ""),
	}
	instrs[2].Synopsis = "r[P3]=r[P1]+r[P2]"
	opcodes.NewPropertyResolver("TK_").ResolveAll(instrs)
	ctx := opcodes.NewContext(opcodes.MaxOpcode)
	opcodes.NewAliasBinder(opcodes.TokenTable{"TK_ADD": 4}).Bind(ctx, instrs)
	a := &opcodes.Allocator{Priority: []string{"OP_Init"}, PlaceholderPrefix: "OP_"}
	tbl, err := a.Allocate(ctx, instrs, opcodes.FormGroups(instrs))
	require.NoError(t, err)
	return tbl
}

func cOptions() Options {
	return OptionsFromConfig(config.Default())
}

const wantRows = `/* Automatically generated.  Do not edit */
/* See the mkopcodeh command for details */
#define OP_Init            0 /* jump0                                      */
#define OP_Goto            1 /* jump                                       */
#define OP_Halt            2
#define OP_NotUsed_3       3
#define OP_Add             4 /* same as TK_ADD, synopsis: r[P3]=r[P1]+r[P2] */

`

const wantTail = `#define OPFLG_INITIALIZER {\
/*   0 */ 0x81, 0x01, 0x00, 0x00, 0x26,}

`

func TestRenderC(t *testing.T) {
	tbl := smallTable(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tbl, cOptions()))

	want := wantRows + flagLegend + wantTail + maxJumpNote +
		"#define SQLITE_MX_JUMP_OPCODE  1  /* Maximum JUMP opcode */\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderCWrapsEightWordsPerLine(t *testing.T) {
	var instrs []*opcodes.Instruction
	for i := 0; i < 9; i++ {
		instrs = append(instrs, opcodes.NewInstruction("OP_J"+string(rune('a'+i)), "jump"))
	}
	opcodes.NewPropertyResolver("TK_").ResolveAll(instrs)
	a := &opcodes.Allocator{PlaceholderPrefix: "OP_"}
	tbl, err := a.Allocate(opcodes.NewContext(opcodes.MaxOpcode), instrs, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tbl, cOptions()))
	out := buf.String()
	assert.Contains(t, out, "/*   0 */ 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,\\\n/*   8 */ 0x01,}\n")
	assert.Contains(t, out, "#define SQLITE_MX_JUMP_OPCODE  8  /* Maximum JUMP opcode */\n")
}

func TestRenderCCustomMacro(t *testing.T) {
	opts := cOptions()
	opts.MaxJumpMacro = "MX_JUMP"
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, smallTable(t), opts))
	assert.True(t, strings.HasSuffix(buf.String(), "#define MX_JUMP  1  /* Maximum JUMP opcode */\n"))
}

func TestRenderEmptyTable(t *testing.T) {
	tbl, err := (&opcodes.Allocator{PlaceholderPrefix: "OP_"}).Allocate(opcodes.NewContext(opcodes.MaxOpcode), nil, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tbl, cOptions()))
	assert.Contains(t, buf.String(), "#define OPFLG_INITIALIZER {\\\n}\n")
	assert.Contains(t, buf.String(), "#define SQLITE_MX_JUMP_OPCODE  -1  /* Maximum JUMP opcode */\n")
}

func TestRenderUnknownFormatWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, smallTable(t), Options{Format: "rust"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, opcerrors.ErrUnknownFormat))
	assert.Zero(t, buf.Len())
}

func TestComment(t *testing.T) {
	tbl := smallTable(t)
	assert.Equal(t, "jump0", Comment(tbl.Entries[0]))
	assert.Equal(t, "", Comment(tbl.Entries[2]))
	assert.Equal(t, "", Comment(tbl.Entries[3]))
	assert.Equal(t, "same as TK_ADD, synopsis: r[P3]=r[P1]+r[P2]", Comment(tbl.Entries[4]))
}

func TestManifest(t *testing.T) {
	m := NewManifest(smallTable(t))
	assert.Equal(t, 4, m.MaxValue)
	assert.Equal(t, 1, m.MaxJump)
	require.Len(t, m.Opcodes, 5)

	add := m.Opcodes[4]
	assert.Equal(t, "OP_Add", add.Name)
	assert.Equal(t, "alias", add.Tier)
	assert.Equal(t, uint8(0x26), add.Word)
	assert.Equal(t, "TK_ADD", add.SameAs)
	require.NotNil(t, add.Flags)
	assert.True(t, add.Flags.Out3)

	hole := m.Opcodes[3]
	assert.Equal(t, "unused", hole.Tier)
	assert.Nil(t, hole.Flags)
	assert.Nil(t, m.Opcodes[2].Flags)
}

func TestRenderManifests(t *testing.T) {
	tbl := smallTable(t)
	want := NewManifest(tbl)

	var jb bytes.Buffer
	require.NoError(t, Render(&jb, tbl, Options{Format: config.FormatJSON}))
	var fromJSON Manifest
	require.NoError(t, json.Unmarshal(jb.Bytes(), &fromJSON))
	assert.Equal(t, *want, fromJSON)
	assert.Contains(t, jb.String(), `"same_as": "TK_ADD"`)

	var yb bytes.Buffer
	require.NoError(t, Render(&yb, tbl, Options{Format: config.FormatYAML}))
	var fromYAML Manifest
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &fromYAML))
	assert.Equal(t, *want, fromYAML)
	assert.Contains(t, yb.String(), "tier: priority")
}

func TestRenderGo(t *testing.T) {
	opts := cOptions()
	opts.Format = config.FormatGo
	opts.GoPackage = "engine"
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, smallTable(t), opts))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "// Code generated by mkopcodeh; DO NOT EDIT.\n\npackage engine\n"))
	assert.Regexp(t, `OpInit\s+Opcode = 0\s+// jump0`, out)
	assert.Regexp(t, `OpNotUsed_3\s+Opcode = 3\n`, out)
	assert.Contains(t, out, "0x81, 0x01, 0x00, 0x00, 0x26,")
	assert.Contains(t, out, `"OP_Add",`)
	assert.Contains(t, out, "const MaxJumpOpcode = 1\n")
}

func TestGoName(t *testing.T) {
	assert.Equal(t, "OpSeekGE", GoName("OP_SeekGE", "OP_"))
	assert.Equal(t, "OpNotUsed_7", GoName("OP_NotUsed_7", "OP_"))
}

func TestParseDefinesMatchesAssignments(t *testing.T) {
	tbl := smallTable(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tbl, cOptions()))

	got, err := ParseDefines(&buf, "OP_")
	require.NoError(t, err)
	assert.Equal(t, Assignments(tbl), got)
}

func TestParseDefinesSkipsOtherNames(t *testing.T) {
	src := "#define OP_Goto 7 /* jump */\n#define OPFLG_JUMP 0x01\n#define TK_SEMI 1\n#define SQLITE_MX_JUMP_OPCODE  7\n"
	got, err := ParseDefines(strings.NewReader(src), "OP_")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"OP_Goto": 7}, got)
}
