package domain

// Fractional priority ranking for the queued column. A reorder touches only
// the moved item: the new priority is derived from its neighbors at the drop
// position, so no other task is renumbered and ties stay possible.

const (
	PriorityMin     = 1
	PriorityMax     = 200
	PriorityDefault = 100

	// priorityGap is the headroom used when dropping at either end of the
	// queue.
	priorityGap = 10
)

// PriorityLabel buckets a priority value for display.
func PriorityLabel(priority int) string {
	switch {
	case priority < 50:
		return "Urgent"
	case priority < 100:
		return "High"
	case priority == 100:
		return "Normal"
	case priority <= 150:
		return "Low"
	}
	return "Backlog"
}

// ClampPriority bounds a priority to the valid range.
func ClampPriority(p int) int {
	if p < PriorityMin {
		return PriorityMin
	}
	if p > PriorityMax {
		return PriorityMax
	}
	return p
}

// ReorderPriority computes the priority an item takes when moved from
// oldIndex to newIndex within the ordered queue. priorities is the queue's
// current priority list, ascending board order, before the move.
//
//   - dropped first: max(1, first-10)
//   - dropped last: last+10
//   - dropped between two items: round of their midpoint
//
// The result is clamped to [PriorityMin, PriorityMax]. Only the moved item's
// priority changes.
func ReorderPriority(priorities []int, oldIndex, newIndex int) int {
	n := len(priorities)
	if n == 0 {
		return PriorityDefault
	}

	var p int
	switch {
	case newIndex <= 0:
		p = priorities[0] - priorityGap
	case newIndex >= n-1:
		p = priorities[n-1] + priorityGap
	default:
		// The slot the item lands in sits after targetIndex once the list
		// closes over the vacated position.
		targetIndex := newIndex
		if oldIndex >= newIndex {
			targetIndex = newIndex - 1
		}
		prev := priorities[targetIndex]
		next := prev + 2*priorityGap
		if targetIndex+1 < n {
			next = priorities[targetIndex+1]
		}
		p = midpoint(prev, next)
	}

	return ClampPriority(p)
}

// NeedsRebalance reports whether the priority ReorderPriority computed for a
// move collides with either neighbor at the drop position. Midpoint averaging
// converges: repeated reorders between the same two neighbors exhaust integer
// precision, and a collision is the signal to renormalize the whole queue.
// The neighbor pair is the same one ReorderPriority averaged.
func NeedsRebalance(priorities []int, oldIndex, newIndex, computed int) bool {
	n := len(priorities)
	if n == 0 || newIndex <= 0 || newIndex >= n-1 {
		return false
	}
	targetIndex := newIndex
	if oldIndex >= newIndex {
		targetIndex = newIndex - 1
	}
	if computed == priorities[targetIndex] {
		return true
	}
	if targetIndex+1 < n && computed == priorities[targetIndex+1] {
		return true
	}
	return false
}

// Renormalize returns evenly spaced priorities for a queue of n items,
// preserving relative order. Spacing is priorityGap when the range allows,
// otherwise the widest integer step that fits [PriorityMin, PriorityMax].
func Renormalize(n int) []int {
	if n <= 0 {
		return nil
	}
	step := priorityGap
	if n*step > PriorityMax {
		step = PriorityMax / n
		if step < 1 {
			step = 1
		}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = ClampPriority(step * (i + 1))
	}
	return out
}

func midpoint(a, b int) int {
	// Round-half-up of (a+b)/2.
	sum := a + b
	if sum%2 != 0 {
		return sum/2 + 1
	}
	return sum / 2
}
