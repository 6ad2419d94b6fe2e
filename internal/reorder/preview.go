package reorder

// Preview returns items with the element at dragged moved to candidate.
// candidate is clamped to the collection. The input is never modified and is
// returned as is when the indexes are equal or dragged is out of range.
func Preview[T any](items []T, dragged, candidate int) []T {
	if dragged < 0 || dragged >= len(items) || dragged == candidate {
		return items
	}
	if candidate < 0 {
		candidate = 0
	}

	out := make([]T, 0, len(items))
	out = append(out, items[:dragged]...)
	out = append(out, items[dragged+1:]...)
	if candidate > len(out) {
		candidate = len(out)
	}
	moved := items[dragged]
	out = append(out, moved)
	copy(out[candidate+1:], out[candidate:len(out)-1])
	out[candidate] = moved
	return out
}
