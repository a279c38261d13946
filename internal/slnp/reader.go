package slnp

// Read collects the named parameters found at level into tuples, one per
// repeating group instance (leaves sharing a parent). Within one instance a
// name that occurs more than once has its values joined with a newline.
// Instances that carry none of the requested names produce no tuple. Values
// are normalized and unescaped.
func Read(t *Tree, level int, names ...string) [][]string {
	col := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := col[name]; !dup {
			col[name] = i
		}
	}

	var (
		tuples   [][]string
		filled   [][]bool
		byParent = make(map[int]int)
	)
	for _, i := range t.leaves() {
		n := t.nodes[i]
		if n.level != level {
			continue
		}
		c, ok := col[n.name]
		if !ok {
			continue
		}
		ti, seen := byParent[n.parent]
		if !seen {
			ti = len(tuples)
			byParent[n.parent] = ti
			tuples = append(tuples, make([]string, len(names)))
			filled = append(filled, make([]bool, len(names)))
		}
		v := Unescape(Normalize(n.value))
		if filled[ti][c] {
			tuples[ti][c] += "\n" + v
		} else {
			tuples[ti][c] = v
			filled[ti][c] = true
		}
	}

	// Repeated names in the request list mirror the first occurrence.
	for i, name := range names {
		if first := col[name]; first != i {
			for _, tup := range tuples {
				tup[i] = tup[first]
			}
		}
	}
	return tuples
}

// ReadOne reads a flat, non-repeating parameter set from level 1. Missing
// names come back as empty strings.
func ReadOne(t *Tree, names ...string) []string {
	tuples := Read(t, 1, names...)
	if len(tuples) == 0 {
		return make([]string, len(names))
	}
	return tuples[0]
}
