package opcodes

import (
	"regexp"
	"strings"
)

// sameAsPattern builds the matcher for "same as <prefix>NAME".
func sameAsPattern(tokenPrefix string) *regexp.Regexp {
	return regexp.MustCompile(`same\s+as\s+(` + regexp.QuoteMeta(tokenPrefix) + `\w+)`)
}

// PropertyResolver turns raw case-line annotations into flags.
type PropertyResolver struct {
	sameAs *regexp.Regexp
}

// NewPropertyResolver returns a resolver recognising tokens with tokenPrefix
// in "same as" clauses.
func NewPropertyResolver(tokenPrefix string) *PropertyResolver {
	return &PropertyResolver{sameAs: sameAsPattern(tokenPrefix)}
}

// Resolve sets the flags, group tag and alias candidate of ins from its
// annotation. Tags are matched as plain substrings and combine freely.
func (r *PropertyResolver) Resolve(ins *Instruction) {
	a := ins.Annotation
	ins.Flags = Flags{}
	ins.Grouped = false
	ins.aliasCandidate = ""
	if a == "" {
		return
	}
	if m := r.sameAs.FindStringSubmatch(a); m != nil {
		ins.aliasCandidate = m[1]
	}
	ins.Grouped = strings.Contains(a, "group")
	ins.Flags.Jump = strings.Contains(a, "jump")
	ins.Flags.In1 = strings.Contains(a, "in1")
	ins.Flags.In2 = strings.Contains(a, "in2")
	ins.Flags.In3 = strings.Contains(a, "in3")
	ins.Flags.Out2 = strings.Contains(a, "out2")
	ins.Flags.Out3 = strings.Contains(a, "out3")
	ins.Flags.NCycle = strings.Contains(a, "ncycle")
	if strings.Contains(a, "jump0") {
		ins.Flags.Jump = true
		ins.Flags.Jump0 = true
	}
}

// ResolveAll runs Resolve over every instruction.
func (r *PropertyResolver) ResolveAll(instrs []*Instruction) {
	for _, ins := range instrs {
		r.Resolve(ins)
	}
}
