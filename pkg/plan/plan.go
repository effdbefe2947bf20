// Package plan computes job-array partition plans.
//
// A partition plan maps an arbitrary number of work items onto a bounded
// number of scheduler array slots. When the item count exceeds the slot
// capacity of the execution substrate, multiple items are packed into each
// slot; the per-slot item set is recovered at execution time from pure
// arithmetic against the persisted manifest, so slots need no shared state.
package plan

import (
	"errors"
	"fmt"
)

// Errors returned by planning operations.
var (
	// ErrInvalidInput indicates a structurally invalid planning input.
	// Nothing is written when planning fails with this error.
	ErrInvalidInput = errors.New("invalid planning input")
)

// InputError wraps ErrInvalidInput with field-level context.
type InputError struct {
	Field   string
	Value   int
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s=%d: %s", e.Field, e.Value, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// JobPlan describes how work items are packed into array slots.
//
// A JobPlan is computed once at submission time and is immutable afterward.
// Invariants: SlotCount <= Capacity, SlotCount = ceil(TotalItems/ItemsPerSlot),
// and every item is owned by exactly one (slot, offset) pair.
type JobPlan struct {
	// TotalItems is the number of work items in the batch.
	TotalItems int

	// Capacity is the maximum number of indexable array slots the
	// execution substrate supports.
	Capacity int

	// ItemsPerSlot is the number of manifest lines each slot processes.
	ItemsPerSlot int

	// SlotCount is the declared array size.
	SlotCount int
}

// Plan computes a JobPlan for totalItems work items under a slot capacity.
//
// If totalItems fits within capacity, each slot owns a single item.
// Otherwise items are packed ceil(totalItems/capacity) per slot rather
// than rejecting the batch. For example 2000 items under a capacity of
// 1024 yields 1000 slots of 2 items each.
func Plan(totalItems, capacity int) (JobPlan, error) {
	if totalItems <= 0 {
		return JobPlan{}, &InputError{Field: "total_items", Value: totalItems, Message: "must be positive"}
	}
	if capacity <= 0 {
		return JobPlan{}, &InputError{Field: "capacity", Value: capacity, Message: "must be positive"}
	}

	perSlot := 1
	if totalItems > capacity {
		perSlot = ceilDiv(totalItems, capacity)
	}
	slots := ceilDiv(totalItems, perSlot)

	return JobPlan{
		TotalItems:   totalItems,
		Capacity:     capacity,
		ItemsPerSlot: perSlot,
		SlotCount:    slots,
	}, nil
}

// Resolve returns the 1-based manifest line numbers owned by slotID.
//
// Lines are returned in slot execution order, which is strictly descending
// local offset: the generated slot script evaluates each over-range guard
// before that line's work runs. Lines beyond totalItems are filtered out;
// only the final slot of a plan can produce them.
func (p JobPlan) Resolve(slotID int) []int {
	return Resolve(slotID, p.ItemsPerSlot, p.TotalItems)
}

// Resolve is the arithmetic contract shared with the generated slot script.
//
// base = slotID * itemsPerSlot; for offset from itemsPerSlot-1 down to 0
// the owned line is base - offset. Slot IDs are 1-based, matching the
// scheduler's array index variable.
func Resolve(slotID, itemsPerSlot, totalItems int) []int {
	base := slotID * itemsPerSlot
	lines := make([]int, 0, itemsPerSlot)
	for offset := itemsPerSlot - 1; offset >= 0; offset-- {
		line := base - offset
		if line > totalItems {
			// Padding beyond the final partial slot; the slot script
			// exits cleanly here instead of erroring.
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
