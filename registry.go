package tensorcheck

import (
	"reflect"
	"sync"

	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"
)

// typeGens maps Go types to their default generators. Registration replaces
// any earlier entry for the same type.
var typeGens = struct {
	sync.RWMutex
	m map[reflect.Type]gopter.Gen
}{
	m: make(map[reflect.Type]gopter.Gen),
}

// Register installs a default generator for a type, replacing any previous
// one. Safe for concurrent use.
func Register(rt reflect.Type, g gopter.Gen) {
	typeGens.Lock()
	defer typeGens.Unlock()
	typeGens.m[rt] = g
}

// ForType returns the registered default generator for a type.
func ForType(rt reflect.Type) (gopter.Gen, bool) {
	typeGens.RLock()
	defer typeGens.RUnlock()
	g, ok := typeGens.m[rt]
	return g, ok
}

// TypeOf is a convenience for Register/ForType call sites.
func TypeOf(v interface{}) reflect.Type {
	return reflect.TypeOf(v)
}

// Defaults are registered at import time so ForType works without setup,
// matching the device and dtype registrations the package API promises.
func init() {
	Register(TypeOf(tensor.Dtype{}), DTypes(NewDTypeOptions()))
	Register(TypeOf(tensor.Shape{}), Shapes(NewShapeOptions()))
	Register(TypeOf(Device{}), Devices(NewDeviceOptions()))
	Register(TypeOf(&tensor.Dense{}), Tensors(NewTensorOptions()))
	Register(TypeOf(Activation{}), Activations())
}
