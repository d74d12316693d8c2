package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestReorderPriority(t *testing.T) {
	tests := []struct {
		name       string
		priorities []int
		oldIndex   int
		newIndex   int
		want       int
	}{
		{"empty queue", nil, 0, 0, PriorityDefault},
		{"move third to front", []int{90, 100, 110}, 2, 0, 80},
		{"front clamps to min", []int{5, 100, 110}, 2, 0, 1},
		{"move first to end", []int{90, 100, 110}, 0, 2, 120},
		{"end clamps to max", []int{90, 100, 195}, 0, 2, 200},
		{"move down between items", []int{10, 20, 30, 40}, 0, 2, 35},
		{"move up between items", []int{10, 20, 30, 40}, 3, 1, 15},
		{"midpoint rounds half up", []int{10, 15, 30}, 0, 1, 23},
		{"single item steps toward front", []int{100}, 0, 0, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderPriority(tt.priorities, tt.oldIndex, tt.newIndex)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReorderPriorityOnlyTouchesMovedItem(t *testing.T) {
	// The input list must come back untouched; reordering is a pure
	// computation over neighbors.
	priorities := []int{10, 20, 30, 40}
	ReorderPriority(priorities, 0, 2)
	assert.Equal(t, []int{10, 20, 30, 40}, priorities)
}

func TestReorderPriorityStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		priorities := make([]int, n)
		for i := range priorities {
			priorities[i] = rapid.IntRange(PriorityMin, PriorityMax).Draw(t, "p")
		}
		sort.Ints(priorities)

		oldIndex := rapid.IntRange(0, n-1).Draw(t, "old")
		newIndex := rapid.IntRange(0, n-1).Draw(t, "new")

		got := ReorderPriority(priorities, oldIndex, newIndex)
		if got < PriorityMin || got > PriorityMax {
			t.Fatalf("priority %d outside [%d,%d]", got, PriorityMin, PriorityMax)
		}
	})
}

func TestNeedsRebalance(t *testing.T) {
	// Adjacent priorities leave no integer midpoint.
	assert.True(t, NeedsRebalance([]int{10, 11, 20}, 2, 1, 11))
	assert.False(t, NeedsRebalance([]int{10, 20, 30}, 2, 1, 15))

	// End positions use the gap, never a midpoint.
	assert.False(t, NeedsRebalance([]int{10, 20, 30}, 1, 0, 10))
	assert.False(t, NeedsRebalance([]int{10, 20, 30}, 0, 2, 40))
}

func TestNeedsRebalanceDownwardMove(t *testing.T) {
	// Moving down averages the pair after the drop position; the collision
	// check must look at that same pair.
	priorities := []int{10, 20, 21}
	computed := ReorderPriority(priorities, 0, 1)
	assert.Equal(t, 21, computed)
	assert.True(t, NeedsRebalance(priorities, 0, 1, computed))

	// The mirrored upward move collides the same way.
	up := []int{10, 11, 30}
	computedUp := ReorderPriority(up, 2, 1)
	assert.Equal(t, 11, computedUp)
	assert.True(t, NeedsRebalance(up, 2, 1, computedUp))
}

func TestRenormalize(t *testing.T) {
	assert.Equal(t, []int{10, 20, 30, 40, 50}, Renormalize(5))
	assert.Nil(t, Renormalize(0))

	// A large queue narrows the step so everything still fits.
	out := Renormalize(30)
	assert.Len(t, out, 30)
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i], out[i-1])
	}
	assert.LessOrEqual(t, out[len(out)-1], PriorityMax)
}

func TestPriorityLabel(t *testing.T) {
	tests := []struct {
		priority int
		want     string
	}{
		{10, "Urgent"}, {49, "Urgent"},
		{50, "High"}, {99, "High"},
		{100, "Normal"},
		{101, "Low"}, {150, "Low"},
		{151, "Backlog"}, {200, "Backlog"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityLabel(tt.priority), "priority %d", tt.priority)
	}
}
