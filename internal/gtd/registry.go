package gtd

import (
	"fmt"
	"reflect"
	"sort"
)

// Constructor builds a fresh policy instance. The evaluator constructs a new
// instance per play per cycle so loaded state never leaks between plays.
type Constructor func() Policy

// Registry is an explicitly constructed policy table. No global state; the
// wiring layer builds one and passes it down.
type Registry struct {
	constructors map[string]Constructor
	types        map[string]reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		types:        make(map[string]reflect.Type),
	}
}

// Register adds a policy constructor. Registering the same name with a
// different implementation is an error; re-registering the identical
// implementation is a no-op.
func (r *Registry) Register(name string, ctor Constructor) error {
	newType := reflect.TypeOf(ctor())
	if existing, ok := r.types[name]; ok {
		if existing == newType {
			return nil
		}
		return fmt.Errorf("policy %q already registered with a different implementation (%s vs %s)", name, existing, newType)
	}
	r.constructors[name] = ctor
	r.types[name] = newType
	return nil
}

// Create builds a fresh instance of a named policy.
func (r *Registry) Create(name string) (Policy, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q", name)
	}
	return ctor(), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParamSchemas exposes every registered policy's parameter schema for
// external configuration surfaces.
func (r *Registry) ParamSchemas() map[string]ParamSchema {
	schemas := make(map[string]ParamSchema, len(r.constructors))
	for name, ctor := range r.constructors {
		schemas[name] = ctor().ParamSchema()
	}
	return schemas
}

// DefaultRegistry returns a registry with every bundled policy installed.
// The table is the compile-time module list; there is no runtime discovery.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	bundled := map[string]Constructor{
		PolicyMaxHoldDays:      func() Policy { return NewMaxHoldDaysPolicy() },
		PolicyDTEClose:         func() Policy { return NewDTEClosePolicy() },
		PolicyHalfLife:         func() Policy { return NewHalfLifePolicy() },
		PolicyProfitTimeStop:   func() Policy { return NewProfitTimeStopPolicy() },
		PolicyLossShorten:      func() Policy { return NewLossShortenPolicy() },
		PolicyProfitExtension:  func() Policy { return NewProfitExtensionPolicy() },
		PolicyRollingExtension: func() Policy { return NewRollingExtensionPolicy() },
		PolicyThetaDecay:       func() Policy { return NewThetaDecayPolicy() },
		PolicyWeekendTheta:     func() Policy { return NewWeekendThetaPolicy() },
		PolicyEventClose:       func() Policy { return NewEventClosePolicy() },
	}
	for name, ctor := range bundled {
		if err := r.Register(name, ctor); err != nil {
			panic(err)
		}
	}
	return r
}
