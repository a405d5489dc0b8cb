package vm

import (
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/value"
)

// callValue implements CALL's calling convention (spec §4.4): dispatch
// on what is sitting at stack position top-argc-1 depending on its
// concrete kind.
func (vm *VM) callValue(callee value.Value, argc int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch obj := callee.AsObj().(type) {
	case *object.ObjClosure:
		return vm.call(obj, argc)
	case *object.ObjClass:
		instance := vm.gc.NewInstance(obj)
		vm.stack[len(vm.stack)-argc-1] = value.FromObj(instance)
		if init, ok := obj.Methods.Get(vm.initString); ok {
			return vm.call(init.AsObj().(*object.ObjClosure), argc)
		}
		if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case *object.ObjBoundMethod:
		vm.stack[len(vm.stack)-argc-1] = obj.Receiver
		return vm.call(obj.Method, argc)
	case *object.ObjNative:
		args := append([]value.Value(nil), vm.stack[len(vm.stack)-argc:]...)
		result, err := obj.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		return vm.push(result)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *object.ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if len(vm.frames) == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, CallFrame{
		closure: closure,
		base:    len(vm.stack) - argc - 1,
	})
	return nil
}

// invoke fuses GET_PROPERTY+CALL (spec §4.4): a field holding a
// callable takes priority over a method of the same name, matching
// property-read shadowing rules (§3 invariants).
func (vm *VM) invoke(name *value.ObjString, argc int) error {
	receiver := vm.peek(argc)
	instance, ok := receiver.AsObj().(*object.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(instance.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *object.ObjClass, name *value.ObjString, argc int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsObj().(*object.ObjClosure), argc)
}

func (vm *VM) getProperty() error {
	receiver := vm.peek(0)
	instance, ok := receiver.AsObj().(*object.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	name := vm.readString()

	if field, ok := instance.Fields.Get(name); ok {
		vm.pop()
		return vm.push(field)
	}
	vm.pop() // receiver; bindMethod pushes the bound method in its place
	return vm.bindMethod(instance.Class, name, receiver)
}

func (vm *VM) setProperty() error {
	receiver := vm.peek(1)
	instance, ok := receiver.AsObj().(*object.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}
	name := vm.readString()
	instance.Fields.Set(name, vm.peek(0))

	v := vm.pop()
	vm.pop()
	return vm.push(v)
}

// bindMethod looks name up in class's method table and, if found,
// allocates a bound method pairing it with receiver. GET_SUPER reuses
// this with the superclass rather than the receiver's own class.
func (vm *VM) bindMethod(class *object.ObjClass, name *value.ObjString, receiver value.Value) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.gc.NewBoundMethod(receiver, method.AsObj().(*object.ObjClosure))
	return vm.push(value.FromObj(bound))
}

func (vm *VM) defineMethod(name *value.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsObj().(*object.ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}
