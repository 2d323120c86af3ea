package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a register definition to the registry.
// Panics if a register with the same kind is already registered, or if a
// rule or code scheme refers to a field the definition does not declare.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Kind]; exists {
		panic(fmt.Sprintf("register already registered: %s", def.Info.Kind))
	}
	if err := def.check(); err != nil {
		panic(fmt.Sprintf("register %s: %v", def.Info.Kind, err))
	}

	def.engine = NewEngine(def.Rules)
	registry[def.Info.Kind] = def
}

// Get returns a register definition by kind.
// Returns false if not found.
func Get(kind string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns all registered definitions.
// Sorted by group then by kind for consistent ordering.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Kind < result[j].Info.Kind
	})

	return result
}

// Kinds returns all registered kinds, sorted alphabetically.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Count returns the number of registered definitions.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Engine returns the derived-field engine for the definition's rules.
func (d Definition) Engine() *Engine {
	if d.engine != nil {
		return d.engine
	}
	return NewEngine(d.Rules)
}

// check verifies that rules and the code scheme only name declared fields.
func (d Definition) check() error {
	if d.Info.Kind == "" {
		return fmt.Errorf("empty kind")
	}
	declared := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if declared[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		declared[f.Name] = true
	}
	for _, r := range d.Rules {
		for _, w := range r.Watches() {
			if !declared[w] {
				return fmt.Errorf("rule %T watches undeclared field %q", r, w)
			}
		}
	}
	if d.Code != nil {
		if !declared[d.Code.Field] {
			return fmt.Errorf("code field %q is not declared", d.Code.Field)
		}
		for _, p := range d.Code.Parts {
			if p.Source == PartField && !declared[p.Field] {
				return fmt.Errorf("code part field %q is not declared", p.Field)
			}
		}
	}
	return nil
}
