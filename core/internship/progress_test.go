package internship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func item(required, completed bool) ChecklistItem {
	return ChecklistItem{Required: required, Completed: completed}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name        string
		items       []ChecklistItem
		wantPercent int
		wantCleared bool
	}{
		{name: "no items", items: nil, wantPercent: 0, wantCleared: true},
		{
			name:        "nothing complete",
			items:       []ChecklistItem{item(true, false), item(false, false)},
			wantPercent: 0, wantCleared: false,
		},
		{
			name:        "half complete, required missing",
			items:       []ChecklistItem{item(true, false), item(false, true)},
			wantPercent: 50, wantCleared: false,
		},
		{
			name:        "required complete, optional missing",
			items:       []ChecklistItem{item(true, true), item(false, false)},
			wantPercent: 50, wantCleared: true,
		},
		{
			name:        "all complete",
			items:       []ChecklistItem{item(true, true), item(false, true)},
			wantPercent: 100, wantCleared: true,
		},
		{
			name: "rounds to nearest",
			// 1 of 3 complete = 33.33 -> 33
			items:       []ChecklistItem{item(false, true), item(false, false), item(false, false)},
			wantPercent: 33, wantCleared: true,
		},
		{
			name: "rounds up",
			// 2 of 3 complete = 66.67 -> 67
			items:       []ChecklistItem{item(false, true), item(false, true), item(false, false)},
			wantPercent: 67, wantCleared: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.items)
			assert.Equal(t, tt.wantPercent, got.Percent)
			assert.Equal(t, tt.wantCleared, got.ClearedForNREMT)
			assert.Equal(t, len(tt.items), got.TotalItems)
		})
	}
}

func TestInternshipOverdue(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		i    Internship
		want bool
	}{
		{name: "no end date", i: Internship{Status: StatusInProgress}, want: false},
		{name: "ends tomorrow", i: Internship{Status: StatusInProgress, EndsOn: tomorrow}, want: false},
		{name: "ended yesterday", i: Internship{Status: StatusInProgress, EndsOn: yesterday}, want: true},
		{name: "ended but completed", i: Internship{Status: StatusCompleted, EndsOn: yesterday}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.i.Overdue(now))
		})
	}
}
