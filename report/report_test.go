package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/opcodeh/opcodes"
)

func sampleTable(t *testing.T) *opcodes.Table {
	t.Helper()
	instrs := []*opcodes.Instruction{
		opcodes.NewInstruction("OP_Goto", "jump"),
		opcodes.NewInstruction("OP_Lt", "jump, in1, in3, group"),
		opcodes.NewInstruction("OP_Gt", "jump, in1, in3, group"),
		opcodes.NewInstruction("OP_Add", "same as TK_PLUS, in1, in2, out3"),
	}
	opcodes.NewPropertyResolver("TK_").ResolveAll(instrs)
	ctx := opcodes.NewContext(opcodes.MaxOpcode)
	opcodes.NewAliasBinder(opcodes.TokenTable{"TK_PLUS": 5}).Bind(ctx, instrs)
	a := &opcodes.Allocator{PlaceholderPrefix: "OP_"}
	tbl, err := a.Allocate(ctx, instrs, opcodes.FormGroups(instrs))
	require.NoError(t, err)
	return tbl
}

func TestAllocationTree(t *testing.T) {
	out := AllocationTree(sampleTable(t))
	assert.Contains(t, out, "opcodes: max=5 maxjump=2")
	assert.Contains(t, out, "alias (1)")
	assert.Contains(t, out, "OP_Add = 5")
	assert.Contains(t, out, "jump (3)")
	assert.Contains(t, out, "unused (2)")
	assert.Contains(t, out, "OP_NotUsed_4 = 4")
	assert.Contains(t, out, "[OP_Lt OP_Gt]")
	assert.NotContains(t, out, "special (")
}

func TestCounts(t *testing.T) {
	tbl := sampleTable(t)
	names, values := TierCounts(tbl)
	require.Len(t, values, len(names))
	got := make(map[string]int)
	for i, n := range names {
		got[n] = values[i]
	}
	assert.Equal(t, map[string]int{
		"alias": 1, "priority": 0, "jump": 3, "group": 0,
		"remainder": 0, "special": 0, "unused": 2,
	}, got)

	flagNames, flagValues := FlagCounts(tbl)
	assert.Equal(t, "jump", flagNames[0])
	assert.Equal(t, []int{3, 3, 1, 2, 0, 1, 0, 0}, flagValues)
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("#define OP_Goto 0\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest([]byte("#define OP_Goto 0\n")))
	assert.NotEqual(t, a, Digest([]byte("#define OP_Goto 1\n")))
}

func TestDrift(t *testing.T) {
	old := map[string]int{"OP_Goto": 0, "OP_Halt": 1}

	diff, changed, err := Drift(old, map[string]int{"OP_Goto": 0, "OP_Halt": 1})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, diff)

	diff, changed, err = Drift(old, map[string]int{"OP_Goto": 0, "OP_Halt": 2, "OP_Noop": 3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, diff, "OP_Halt")
	assert.Contains(t, diff, "OP_Noop")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleTable(t)))
	out := buf.String()
	assert.Contains(t, out, "mkopcodeh allocation")
	assert.Contains(t, out, "Opcodes per tier")
	assert.Contains(t, out, "Opcodes per property")
}
