package vm

import "github.com/kristofer/smog/pkg/object"

// captureUpvalue returns the open upvalue for the given absolute stack
// slot, reusing an existing one if the slot is already captured (spec
// §4.4's CaptureUpvalue dedup requirement). The open list is kept
// sorted by descending slot, standing in for "descending stack address"
// since slot indices grow in the same direction as the stack and the
// backing array never reallocates (stack is fixed-capacity).
func (vm *VM) captureUpvalue(slot int) *object.ObjUpvalue {
	for _, e := range vm.openUpvalues {
		if e.slot == slot {
			return e.up
		}
	}

	up := vm.gc.NewUpvalue(&vm.stack[:cap(vm.stack)][slot])
	insertAt := len(vm.openUpvalues)
	for i, e := range vm.openUpvalues {
		if e.slot < slot {
			insertAt = i
			break
		}
	}
	vm.openUpvalues = append(vm.openUpvalues, openUpvalueEntry{})
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = openUpvalueEntry{slot: slot, up: up}
	return up
}

// closeUpvalues closes every open upvalue at or above threshold,
// copying each one's current stack value into its fallback slot (spec
// §4.4's CloseUpvalues), then drops them from the open list.
func (vm *VM) closeUpvalues(threshold int) {
	i := 0
	for i < len(vm.openUpvalues) && vm.openUpvalues[i].slot >= threshold {
		vm.openUpvalues[i].up.Close()
		i++
	}
	vm.openUpvalues = vm.openUpvalues[i:]
}
