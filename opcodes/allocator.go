package opcodes

import (
	"fmt"

	log "github.com/colorfulnotion/opcodeh/log"
	"github.com/colorfulnotion/opcodeh/opcerrors"
)

// DefaultPriority names the opcodes that resolveP2Values() rewrites at
// runtime. They get the smallest values so that pass can switch on a dense
// range.
var DefaultPriority = []string{
	"OP_Transaction",
	"OP_AutoCommit",
	"OP_Savepoint",
	"OP_Checkpoint",
	"OP_Vacuum",
	"OP_JournalMode",
	"OP_VUpdate",
	"OP_VFilter",
	"OP_Init",
}

// DefaultSpecials are appended after every declared opcode. OP_Abortable is
// also withheld from its declaration point so it always numbers last.
var DefaultSpecials = []string{"OP_Noop", "OP_Explain", "OP_Abortable"}

// Entry is one row of the dense opcode table. Instruction is nil for
// placeholder rows.
type Entry struct {
	Value       int
	Name        string
	Instruction *Instruction
}

// Unused reports whether the row is a placeholder.
func (e Entry) Unused() bool {
	return e.Instruction == nil
}

// Tier returns the tier that produced the row.
func (e Entry) Tier() Tier {
	if e.Instruction == nil {
		return TierUnused
	}
	return e.Instruction.Tier
}

// Table is the finished allocation.
type Table struct {
	// Entries is indexed by value and has no gaps.
	Entries []Entry
	// Instructions holds every real opcode in declaration order, specials last.
	Instructions []*Instruction
	Groups       []Group
	// MaxValue is the largest value in the table, or -1 when empty.
	MaxValue int
	// MaxJump is the largest value of a jump opcode, or -1 when there are none.
	MaxJump int
}

// Lookup returns the instruction with the given name.
func (t *Table) Lookup(name string) (*Instruction, bool) {
	for _, ins := range t.Instructions {
		if ins.Name == name {
			return ins, true
		}
	}
	return nil, false
}

// Allocator numbers instructions in tiers: priority, jump, group, remainder
// and specials. Alias binding happens before, on the same Context.
type Allocator struct {
	Priority []string
	Specials []string
	// PlaceholderPrefix starts the name of filler rows, e.g. "OP_" gives
	// "OP_NotUsed_12".
	PlaceholderPrefix string
}

// NewAllocator returns an allocator with the engine defaults.
func NewAllocator() *Allocator {
	return &Allocator{
		Priority:          DefaultPriority,
		Specials:          DefaultSpecials,
		PlaceholderPrefix: "OP_",
	}
}

// Allocate assigns every unassigned instruction a value and builds the dense
// table. instrs is the declaration order; groups come from FormGroups.
func (a *Allocator) Allocate(ctx *Context, instrs []*Instruction, groups []Group) (*Table, error) {
	all := a.appendSpecials(instrs)

	a.priorityTier(ctx, all)
	a.jumpTier(ctx, all)
	if err := a.groupTier(ctx, groups); err != nil {
		return nil, err
	}
	a.sequentialTier(ctx, all, TierRemainder, func(ins *Instruction) bool { return ins.Tier != TierSpecial })
	a.sequentialTier(ctx, all, TierSpecial, func(ins *Instruction) bool { return ins.Tier == TierSpecial })

	mx := ctx.maxUsed()
	if mx > ctx.Ceiling() {
		return nil, fmt.Errorf("%w: largest value %d, ceiling %d", opcerrors.ErrOpcodeOverflow, mx, ctx.Ceiling())
	}

	t := &Table{
		Instructions: all,
		Groups:       groups,
		MaxValue:     mx,
		MaxJump:      maxJump(all),
	}
	t.Entries = a.densify(ctx, mx)
	log.Debug(log.AllocMonitoring, "allocation done", "opcodes", len(all), "max", mx, "maxJump", t.MaxJump)
	return t, nil
}

// appendSpecials returns instrs followed by fresh special instructions with
// cleared flags. A declared special is not appended again; its flags are
// cleared and, unless an alias already numbered it, it moves to the special
// tier.
func (a *Allocator) appendSpecials(instrs []*Instruction) []*Instruction {
	all := make([]*Instruction, 0, len(instrs)+len(a.Specials))
	all = append(all, instrs...)
	special := make(map[string]bool, len(a.Specials))
	for _, name := range a.Specials {
		special[name] = true
	}
	declared := make(map[string]bool, len(instrs))
	for _, ins := range instrs {
		declared[ins.Name] = true
		if !special[ins.Name] {
			continue
		}
		ins.Flags = Flags{}
		if !ins.Assigned() {
			ins.Tier = TierSpecial
		}
	}
	for _, name := range a.Specials {
		if declared[name] {
			continue
		}
		declared[name] = true
		sp := NewInstruction(name, "")
		sp.Tier = TierSpecial
		all = append(all, sp)
	}
	return all
}

func (a *Allocator) priorityTier(ctx *Context, all []*Instruction) {
	prio := make(map[string]bool, len(a.Priority))
	for _, name := range a.Priority {
		prio[name] = true
	}
	for _, ins := range all {
		if ins.Assigned() || !prio[ins.Name] {
			continue
		}
		v := ctx.next(ins, TierPriority)
		log.Trace(log.AllocMonitoring, "priority", "opcode", ins.Name, "value", v)
	}
}

func (a *Allocator) jumpTier(ctx *Context, all []*Instruction) {
	for _, ins := range all {
		if ins.Assigned() || !ins.Flags.Jump {
			continue
		}
		v := ctx.next(ins, TierJump)
		log.Trace(log.AllocMonitoring, "jump", "opcode", ins.Name, "value", v)
	}
}

// groupTier places each group on the lowest free run above the cursor. The
// whole run is reserved even when some members were numbered earlier; such a
// member keeps its value and its slot in the run stays empty. The cursor is
// not moved.
func (a *Allocator) groupTier(ctx *Context, groups []Group) error {
	for gi, g := range groups {
		start, ok := ctx.findRun(len(g))
		if !ok {
			return fmt.Errorf("%w: group %d %v needs %d values above %d", opcerrors.ErrGroupUnsatisfiable, gi, g.Names(), len(g), ctx.Cursor())
		}
		for i, ins := range g {
			if ins.Assigned() {
				ctx.reserve(start + i)
				continue
			}
			ctx.claim(ins, start+i, TierGroup)
		}
		log.Trace(log.AllocMonitoring, "group", "index", gi, "start", start, "members", g.Names())
	}
	return nil
}

func (a *Allocator) sequentialTier(ctx *Context, all []*Instruction, tier Tier, want func(*Instruction) bool) {
	for _, ins := range all {
		if ins.Assigned() || !want(ins) {
			continue
		}
		v := ctx.next(ins, tier)
		log.Trace(log.AllocMonitoring, tier.String(), "opcode", ins.Name, "value", v)
	}
}

func (a *Allocator) densify(ctx *Context, mx int) []Entry {
	entries := make([]Entry, mx+1)
	for v := 0; v <= mx; v++ {
		if ins := ctx.Owner(v); ins != nil {
			entries[v] = Entry{Value: v, Name: ins.Name, Instruction: ins}
			continue
		}
		entries[v] = Entry{Value: v, Name: fmt.Sprintf("%sNotUsed_%d", a.PlaceholderPrefix, v)}
	}
	return entries
}

func maxJump(all []*Instruction) int {
	mx := -1
	for _, ins := range all {
		if ins.Flags.Jump && ins.Value > mx {
			mx = ins.Value
		}
	}
	return mx
}
