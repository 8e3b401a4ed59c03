package aggregator

import "budgetpace/internal/models"

// Tree is the ledger category hierarchy stored as an arena: parallel slices
// indexed by position, with parents referenced by index. -1 marks a root.
type Tree struct {
	ids    []string
	names  []string
	income []bool
	parent []int32
	index  map[string]int32
}

// NewTree builds the arena from a flat category list. Parents that are not
// in the list are treated as roots.
func NewTree(categories []models.Category) *Tree {
	t := &Tree{
		ids:    make([]string, len(categories)),
		names:  make([]string, len(categories)),
		income: make([]bool, len(categories)),
		parent: make([]int32, len(categories)),
		index:  make(map[string]int32, len(categories)),
	}
	for i, c := range categories {
		t.ids[i] = c.ID
		t.names[i] = c.Name
		t.income[i] = c.IsIncome
		t.index[c.ID] = int32(i)
	}
	for i, c := range categories {
		t.parent[i] = -1
		if c.ParentID == nil {
			continue
		}
		if p, ok := t.index[*c.ParentID]; ok && int(p) != i {
			t.parent[i] = p
		}
	}
	return t
}

// Len returns the number of categories.
func (t *Tree) Len() int { return len(t.ids) }

// Lookup returns the arena index of id.
func (t *Tree) Lookup(id string) (int32, bool) {
	if t == nil {
		return -1, false
	}
	i, ok := t.index[id]
	return i, ok
}

// Name returns the display name of id, or "" when unknown.
func (t *Tree) Name(id string) string {
	if i, ok := t.Lookup(id); ok {
		return t.names[i]
	}
	return ""
}

// IsIncome reports whether id is an income category.
func (t *Tree) IsIncome(id string) bool {
	if i, ok := t.Lookup(id); ok {
		return t.income[i]
	}
	return false
}

// Parent returns the parent index of i, or -1.
func (t *Tree) Parent(i int32) int32 { return t.parent[i] }

// ID returns the category id at index i.
func (t *Tree) ID(i int32) string { return t.ids[i] }

// nearest resolves every node to the closest node (itself or an ancestor)
// for which budgeted reports true. Cycles in malformed data are cut after
// Len() hops.
func (t *Tree) nearest(budgeted func(int32) bool) []int32 {
	out := make([]int32, len(t.ids))
	for i := range out {
		out[i] = -2
	}
	var resolve func(i int32, depth int) int32
	resolve = func(i int32, depth int) int32 {
		if out[i] != -2 {
			return out[i]
		}
		if budgeted(i) {
			out[i] = i
			return i
		}
		p := t.parent[i]
		if p < 0 || depth >= len(t.ids) {
			out[i] = -1
			return -1
		}
		out[i] = resolve(p, depth+1)
		return out[i]
	}
	for i := range out {
		resolve(int32(i), 0)
	}
	return out
}
