package header

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v2"

	"github.com/colorfulnotion/opcodeh/opcodes"
)

// Manifest is the machine readable form of an opcode table.
type Manifest struct {
	MaxValue int             `json:"max_value" yaml:"max_value"`
	MaxJump  int             `json:"max_jump" yaml:"max_jump"`
	Groups   [][]string      `json:"groups,omitempty" yaml:"groups,omitempty"`
	Opcodes  []ManifestEntry `json:"opcodes" yaml:"opcodes"`
}

type ManifestEntry struct {
	Name       string         `json:"name" yaml:"name"`
	Value      int            `json:"value" yaml:"value"`
	Tier       string         `json:"tier" yaml:"tier"`
	Word       uint8          `json:"word" yaml:"word"`
	Flags      *opcodes.Flags `json:"flags,omitempty" yaml:"flags,omitempty"`
	ParamUsage uint8          `json:"param_usage,omitempty" yaml:"param_usage,omitempty"`
	SameAs     string         `json:"same_as,omitempty" yaml:"same_as,omitempty"`
	Synopsis   string         `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
}

// NewManifest flattens t.
func NewManifest(t *opcodes.Table) *Manifest {
	m := &Manifest{
		MaxValue: t.MaxValue,
		MaxJump:  t.MaxJump,
		Opcodes:  make([]ManifestEntry, 0, len(t.Entries)),
	}
	for _, g := range t.Groups {
		m.Groups = append(m.Groups, g.Names())
	}
	for _, e := range t.Entries {
		me := ManifestEntry{
			Name:  e.Name,
			Value: e.Value,
			Tier:  e.Tier().String(),
			Word:  e.Word(),
		}
		if ins := e.Instruction; ins != nil {
			if ins.Flags != (opcodes.Flags{}) {
				f := ins.Flags
				me.Flags = &f
			}
			me.ParamUsage = ins.ParamUsage
			me.SameAs = ins.SameAs
			me.Synopsis = ins.Synopsis
		}
		m.Opcodes = append(m.Opcodes, me)
	}
	return m
}

// Assignments maps every row name, placeholders included, to its value.
func Assignments(t *opcodes.Table) map[string]int {
	out := make(map[string]int, len(t.Entries))
	for _, e := range t.Entries {
		out[e.Name] = e.Value
	}
	return out
}

func renderJSON(buf *bytes.Buffer, t *opcodes.Table) error {
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	return enc.Encode(NewManifest(t))
}

func renderYAML(buf *bytes.Buffer, t *opcodes.Table) error {
	out, err := yaml.Marshal(NewManifest(t))
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}
