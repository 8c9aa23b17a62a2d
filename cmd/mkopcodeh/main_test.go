package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/opcodeh/opcerrors"
)

var sampleFiles = []string{
	filepath.Join("..", "..", "generator", "testdata", "parse.h"),
	filepath.Join("..", "..", "generator", "testdata", "vdbe.c"),
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&options{})
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateFromFiles(t *testing.T) {
	out, err := execute(t, "", sampleFiles...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "/* Automatically generated.  Do not edit */\n"))
	assert.Contains(t, out, "#define SQLITE_MX_JUMP_OPCODE  54  /* Maximum JUMP opcode */\n")
}

func TestGenerateFromStdin(t *testing.T) {
	out, err := execute(t, "case OP_Goto: { /* jump */\ncase OP_Halt: {\n", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: OP_Goto")
	assert.Contains(t, out, "max_jump: 0")
}

func TestGenerateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opcodes.h")
	out, err := execute(t, "", append([]string{"-o", path}, sampleFiles...)...)
	require.NoError(t, err)
	assert.Empty(t, out)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "#define OP_Add           106")
}

func TestCeilingFlagOverflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opcodes.h")
	_, err := execute(t, "", append([]string{"--ceiling", "100", "-o", path}, sampleFiles...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, opcerrors.ErrOpcodeOverflow))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mkopcodeh.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0o644))
	out, err := execute(t, "case OP_Halt: {\n", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "OP_Halt"`)

	_, err = execute(t, "", "--config", cfgPath, "--format", "rust")
	assert.True(t, errors.Is(err, opcerrors.ErrUnknownFormat))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opcodes.h")
	_, err := execute(t, "", append([]string{"-o", path}, sampleFiles...)...)
	require.NoError(t, err)

	out, err := execute(t, "", append([]string{"check", path}, sampleFiles...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "is up to date")

	stale, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(stale), "#define OP_Halt            6", "#define OP_Halt            9", 1)
	require.NotEqual(t, string(stale), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	out, err = execute(t, "", append([]string{"check", path}, sampleFiles...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, opcerrors.ErrHeaderDrift))
	assert.Contains(t, out, "OP_Halt")

	_, err = execute(t, "", "check")
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	out, err := execute(t, "", append([]string{"explain"}, sampleFiles...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "OP_Init = 0")
	assert.Contains(t, out, "special (3)")
	assert.NotContains(t, out, "undeclared documentation")
}

func TestExplainReportsUndeclaredDocs(t *testing.T) {
	src := "/* Opcode: Orphan P1 * * * *\n** Synopsis: nobody declares me\n*/\ncase OP_Halt: {\n"
	out, err := execute(t, src, "explain")
	require.NoError(t, err)
	assert.Contains(t, out, "undeclared documentation: [OP_Orphan]")
	assert.NotContains(t, out, "OP_Explain]")
}

func TestOverflowLeavesStdoutEmpty(t *testing.T) {
	src := "case OP_A: {\ncase OP_B: {\ncase OP_C: {\ncase OP_D: {\n"
	out, err := execute(t, src, "--ceiling", "2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, opcerrors.ErrOpcodeOverflow))
	assert.Empty(t, out)

	out, err = execute(t, "", append([]string{"--ceiling", "100"}, sampleFiles...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, opcerrors.ErrOpcodeOverflow))
	assert.Empty(t, out)
}

func TestFailureAttrs(t *testing.T) {
	err := fmt.Errorf("%w: largest value 300, ceiling 255", opcerrors.ErrOpcodeOverflow)
	attrs := failureAttrs(err)
	require.Len(t, attrs, 6)
	assert.Equal(t, []interface{}{"code", "O1_OpcodeOverflow"}, attrs[2:4])
	assert.Equal(t, "desc", attrs[4])
	assert.Contains(t, attrs[5], "ceiling")

	plain := errors.New("open vdbe.c: no such file or directory")
	assert.Equal(t, []interface{}{"err", plain}, failureAttrs(plain))
}

func TestReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opcodes.html")
	_, err := execute(t, "", append([]string{"report", "--html", path}, sampleFiles...)...)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Opcodes per tier")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "mkopcodeh dev (none)\n", out)
}
