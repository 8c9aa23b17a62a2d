package opcodes

// Group is a run of consecutively declared grouped opcodes that must be
// numbered as one contiguous ascending block.
type Group []*Instruction

// Names returns the member names in declaration order.
func (g Group) Names() []string {
	names := make([]string, len(g))
	for i, ins := range g {
		names[i] = ins.Name
	}
	return names
}

// FormGroups splits the declaration list into groups. A group opens at a
// grouped instruction whose predecessor is not grouped and closes at the
// next ungrouped one or at the end of the list.
func FormGroups(instrs []*Instruction) []Group {
	var groups []Group
	var cur Group
	for _, ins := range instrs {
		if ins.Grouped {
			cur = append(cur, ins)
			continue
		}
		if len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}
