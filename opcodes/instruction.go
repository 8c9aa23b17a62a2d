package opcodes

// Unassigned marks an instruction that no tier has numbered yet.
const Unassigned = -1

// MaxOpcode is the largest value the engine's single-byte opcode field holds.
const MaxOpcode = 255

// Tier records which allocation pass gave an instruction its value.
type Tier int

const (
	TierNone Tier = iota
	TierAlias
	TierPriority
	TierJump
	TierGroup
	TierRemainder
	TierSpecial
	TierUnused
)

var tierNames = [...]string{
	TierNone:      "none",
	TierAlias:     "alias",
	TierPriority:  "priority",
	TierJump:      "jump",
	TierGroup:     "group",
	TierRemainder: "remainder",
	TierSpecial:   "special",
	TierUnused:    "unused",
}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// Tiers lists the tiers in the order the allocator runs them.
var Tiers = []Tier{TierAlias, TierPriority, TierJump, TierGroup, TierRemainder, TierSpecial}

// Flags are the per-opcode properties read from the case-line comment.
type Flags struct {
	Jump   bool `json:"jump,omitempty" yaml:"jump,omitempty"`
	Jump0  bool `json:"jump0,omitempty" yaml:"jump0,omitempty"`
	In1    bool `json:"in1,omitempty" yaml:"in1,omitempty"`
	In2    bool `json:"in2,omitempty" yaml:"in2,omitempty"`
	In3    bool `json:"in3,omitempty" yaml:"in3,omitempty"`
	Out2   bool `json:"out2,omitempty" yaml:"out2,omitempty"`
	Out3   bool `json:"out3,omitempty" yaml:"out3,omitempty"`
	NCycle bool `json:"ncycle,omitempty" yaml:"ncycle,omitempty"`
}

// Instruction is one VDBE opcode as it moves through the generator.
type Instruction struct {
	Name  string
	Value int
	Tier  Tier

	Flags   Flags
	Grouped bool

	// ParamUsage has bit i-1 set when operand Pi is mentioned in the
	// opcode's documentation header.
	ParamUsage uint8
	Synopsis   string

	// SameAs is the token whose value this opcode reuses. It is only kept
	// once the binding succeeded.
	SameAs string

	// Annotation is the raw text of the case-line comment.
	Annotation string
	// aliasCandidate is the token named by "same as", bound or not.
	aliasCandidate string
}

// NewInstruction returns an unassigned instruction stub.
func NewInstruction(name, annotation string) *Instruction {
	return &Instruction{
		Name:       name,
		Value:      Unassigned,
		Annotation: annotation,
	}
}

// Assigned reports whether a tier has numbered the instruction.
func (ins *Instruction) Assigned() bool {
	return ins.Value != Unassigned
}

// AliasCandidate returns the token named in the "same as" clause, if any.
func (ins *Instruction) AliasCandidate() string {
	return ins.aliasCandidate
}

// TokenTable maps parser token names to their values.
type TokenTable map[string]int

// Lookup returns the value of a token and whether it exists.
func (t TokenTable) Lookup(name string) (int, bool) {
	v, ok := t[name]
	return v, ok
}
