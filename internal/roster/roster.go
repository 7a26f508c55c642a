package roster

import "slices"

// Roster maps a champion identifier to its display name for one patch.
type Roster map[int]string

func (r Roster) Name(id int) (string, bool) {
	name, ok := r[id]
	return name, ok
}

// IDs returns the roster identifiers in ascending order.
func (r Roster) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
