package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		totalItems  int
		capacity    int
		wantPerSlot int
		wantSlots   int
		wantErr     bool
	}{
		{
			name:        "two items per slot when doubled capacity",
			totalItems:  2000,
			capacity:    1024,
			wantPerSlot: 2,
			wantSlots:   1000,
		},
		{
			name:        "uneven packing still halves slot count",
			totalItems:  1500,
			capacity:    1024,
			wantPerSlot: 2,
			wantSlots:   750,
		},
		{
			name:        "small batch gets one item per slot",
			totalItems:  5,
			capacity:    1024,
			wantPerSlot: 1,
			wantSlots:   5,
		},
		{
			name:        "exactly at capacity",
			totalItems:  1024,
			capacity:    1024,
			wantPerSlot: 1,
			wantSlots:   1024,
		},
		{
			name:        "one over capacity",
			totalItems:  1025,
			capacity:    1024,
			wantPerSlot: 2,
			wantSlots:   513,
		},
		{
			name:        "final slot partially filled",
			totalItems:  7,
			capacity:    3,
			wantPerSlot: 3,
			wantSlots:   3,
		},
		{
			name:       "zero items rejected",
			totalItems: 0,
			capacity:   1024,
			wantErr:    true,
		},
		{
			name:       "negative items rejected",
			totalItems: -5,
			capacity:   1024,
			wantErr:    true,
		},
		{
			name:       "zero capacity rejected",
			totalItems: 10,
			capacity:   0,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Plan(tt.totalItems, tt.capacity)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPerSlot, p.ItemsPerSlot)
			assert.Equal(t, tt.wantSlots, p.SlotCount)
			assert.LessOrEqual(t, p.SlotCount, p.Capacity)
		})
	}
}

func TestResolve_FinalSlotPartial(t *testing.T) {
	// 7 items packed 3 per slot: slot 3 owns lines 7, 8, 9 but only
	// line 7 is in range.
	p, err := Plan(7, 3)
	require.NoError(t, err)
	require.Equal(t, 3, p.ItemsPerSlot)
	require.Equal(t, 3, p.SlotCount)

	assert.Equal(t, []int{1, 2, 3}, p.Resolve(1))
	assert.Equal(t, []int{4, 5, 6}, p.Resolve(2))
	assert.Equal(t, []int{7}, p.Resolve(3))
}

func TestResolve_RoundTrip(t *testing.T) {
	// The union of resolved lines across all slots must be exactly
	// {1..totalItems} with no duplicates.
	cases := []struct {
		totalItems int
		capacity   int
	}{
		{2000, 1024},
		{1500, 1024},
		{1025, 1024},
		{1024, 1024},
		{7, 3},
		{5, 1024},
		{1, 1},
		{100, 7},
	}

	for _, tc := range cases {
		p, err := Plan(tc.totalItems, tc.capacity)
		require.NoError(t, err)

		seen := make(map[int]int)
		for slot := 1; slot <= p.SlotCount; slot++ {
			for _, line := range p.Resolve(slot) {
				seen[line]++
			}
		}

		assert.Len(t, seen, tc.totalItems,
			"total=%d capacity=%d: every item assigned", tc.totalItems, tc.capacity)
		for line := 1; line <= tc.totalItems; line++ {
			assert.Equal(t, 1, seen[line],
				"total=%d capacity=%d: line %d assigned exactly once", tc.totalItems, tc.capacity, line)
		}
	}
}

func TestResolve_OnlyFinalSlotUnderfilled(t *testing.T) {
	p, err := Plan(10, 4)
	require.NoError(t, err)

	for slot := 1; slot < p.SlotCount; slot++ {
		assert.Len(t, p.Resolve(slot), p.ItemsPerSlot, "slot %d must be full", slot)
	}
	last := p.Resolve(p.SlotCount)
	assert.NotEmpty(t, last)
	assert.LessOrEqual(t, len(last), p.ItemsPerSlot)
}

func TestInputError_Message(t *testing.T) {
	_, err := Plan(-1, 8)
	require.Error(t, err)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "total_items", inputErr.Field)
	assert.Contains(t, err.Error(), "must be positive")
}
