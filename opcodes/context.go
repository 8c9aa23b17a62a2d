package opcodes

// Context is the allocation state shared by the tiers of one generator run.
// Values are assigned once and the used set only grows.
type Context struct {
	ceiling int
	used    map[int]bool
	owner   map[int]*Instruction
	// cursor is the last value handed out by a sequential tier. Every value
	// at or below it is already used.
	cursor int
}

// NewContext returns an empty context whose values must stay at or below ceiling.
func NewContext(ceiling int) *Context {
	return &Context{
		ceiling: ceiling,
		used:    make(map[int]bool),
		owner:   make(map[int]*Instruction),
		cursor:  -1,
	}
}

// Ceiling returns the largest value the context may emit.
func (c *Context) Ceiling() int {
	return c.ceiling
}

// Cursor returns the last value handed out sequentially, or -1.
func (c *Context) Cursor() int {
	return c.cursor
}

// IsUsed reports whether v has been claimed or reserved.
func (c *Context) IsUsed(v int) bool {
	return c.used[v]
}

// Owner returns the instruction holding v, if any.
func (c *Context) Owner(v int) *Instruction {
	return c.owner[v]
}

// Used returns the number of claimed or reserved values.
func (c *Context) Used() int {
	return len(c.used)
}

// claim gives v to ins. Callers check IsUsed first.
func (c *Context) claim(ins *Instruction, v int, tier Tier) {
	if ins.Assigned() {
		panic("opcodes: value assigned twice to " + ins.Name)
	}
	ins.Value = v
	ins.Tier = tier
	c.used[v] = true
	c.owner[v] = ins
}

// reserve marks v as used without an owner.
func (c *Context) reserve(v int) {
	c.used[v] = true
}

// next advances the cursor to the next free value and claims it for ins.
func (c *Context) next(ins *Instruction, tier Tier) int {
	c.cursor++
	for c.used[c.cursor] {
		c.cursor++
	}
	c.claim(ins, c.cursor, tier)
	return c.cursor
}

// findRun returns the smallest start above the cursor such that n
// consecutive values from start are free and the last one is within the
// ceiling.
func (c *Context) findRun(n int) (int, bool) {
	for start := c.cursor + 1; start+n-1 <= c.ceiling; start++ {
		free := true
		for v := start; v < start+n; v++ {
			if c.used[v] {
				free = false
				start = v
				break
			}
		}
		if free {
			return start, true
		}
	}
	return 0, false
}

// maxUsed returns the largest used value, or -1.
func (c *Context) maxUsed() int {
	mx := -1
	for v := range c.used {
		if v > mx {
			mx = v
		}
	}
	return mx
}
