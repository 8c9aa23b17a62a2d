package opcodes

import (
	log "github.com/colorfulnotion/opcodeh/log"
)

// AliasBinder fixes opcodes declared "same as" a parser token to that
// token's value, so the code generator can use one for the other without a
// translation table.
type AliasBinder struct {
	tokens TokenTable
}

// NewAliasBinder returns a binder over tokens.
func NewAliasBinder(tokens TokenTable) *AliasBinder {
	return &AliasBinder{tokens: tokens}
}

// Bind claims token values for every instruction whose alias candidate is a
// known token. Unknown tokens and values already claimed by an earlier alias
// leave the instruction for the normal tiers. It returns the number bound.
func (b *AliasBinder) Bind(ctx *Context, instrs []*Instruction) int {
	bound := 0
	for _, ins := range instrs {
		tok := ins.aliasCandidate
		if tok == "" || ins.Assigned() {
			continue
		}
		v, ok := b.tokens.Lookup(tok)
		if !ok {
			log.Debug(log.AllocMonitoring, "alias token unknown", "opcode", ins.Name, "token", tok)
			continue
		}
		if ctx.IsUsed(v) {
			log.Warn(log.AllocMonitoring, "alias value already taken", "opcode", ins.Name, "token", tok, "value", v, "holder", ctx.Owner(v).Name)
			continue
		}
		ctx.claim(ins, v, TierAlias)
		ins.SameAs = tok
		bound++
		log.Trace(log.AllocMonitoring, "alias bound", "opcode", ins.Name, "token", tok, "value", v)
	}
	return bound
}
