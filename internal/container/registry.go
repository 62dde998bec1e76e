package container

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

type Key struct {
	Type reflect.Type
	Name string
}

func (k Key) String() string {
	return ireflect.NamedKey(k.Type, k.Name)
}

type Kind uint8

const (
	KindFunc Kind = iota
	KindStruct
	KindAlias
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindStruct:
		return "struct"
	case KindAlias:
		return "alias"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

type Binding struct {
	Key    Key
	Scope  scope.Scope
	Kind   Kind
	Target reflect.Type
	Module string

	prov  *provider
	owner *Container
	slot  *slot
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.Key, b.Kind, b.Scope)
}

// Registry is the bindings table of one injector. Lookups fall through to
// the parent's table.
type Registry struct {
	mu       sync.RWMutex
	parent   *Registry
	bindings map[Key]*Binding
	order    []*Binding
}

func NewRegistry(parent *Registry) *Registry {
	return &Registry{
		parent:   parent,
		bindings: make(map[Key]*Binding),
	}
}

func (r *Registry) Register(b *Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bindings[b.Key]; ok {
		return newError(
			b.Key.String(), nil,
			fmt.Errorf("%w: declared by %s and %s", ErrDuplicate, origin(existing), origin(b)),
		)
	}
	r.bindings[b.Key] = b
	r.order = append(r.order, b)
	return nil
}

func origin(b *Binding) string {
	if b.Module == "" {
		return "<root>"
	}
	return "module " + b.Module
}

func (r *Registry) exact(k Key) (*Binding, bool) {
	for reg := r; reg != nil; reg = reg.parent {
		reg.mu.RLock()
		b, ok := reg.bindings[k]
		reg.mu.RUnlock()
		if ok {
			return b, true
		}
	}
	return nil, false
}

// Lookup finds the binding for k. An annotated binding wins over the
// unannotated one, which annotated requests fall back to.
func (r *Registry) Lookup(k Key) (*Binding, bool) {
	if b, ok := r.exact(k); ok {
		return b, true
	}
	if k.Name != "" {
		return r.exact(Key{Type: k.Type})
	}
	return nil, false
}

func (r *Registry) Own() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Visible lists every binding reachable from r, nearest declaration first.
func (r *Registry) Visible() []*Binding {
	seen := make(map[Key]bool)
	var out []*Binding
	for reg := r; reg != nil; reg = reg.parent {
		for _, b := range reg.Own() {
			if !seen[b.Key] {
				seen[b.Key] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// Implementor picks the binding that serves an unbound interface. Candidates
// are bindings whose type implements iface; the most derived one, which
// implements every other candidate, wins.
func (r *Registry) Implementor(k Key) (*Binding, error) {
	if k.Type.Kind() != reflect.Interface {
		return nil, nil
	}

	names := []string{k.Name}
	if k.Name != "" {
		names = append(names, "")
	}

	for _, name := range names {
		var candidates []*Binding
		for _, b := range r.Visible() {
			if b.Key.Name != name || b.Key.Type == k.Type {
				continue
			}
			if b.Key.Type.AssignableTo(k.Type) {
				candidates = append(candidates, b)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		if w := mostDerived(candidates); w != nil {
			return w, nil
		}

		listed := make([]string, len(candidates))
		for i, c := range candidates {
			listed[i] = c.Key.String()
		}
		slices.Sort(listed)
		return nil, newError(
			k.String(), nil,
			fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(listed, ", ")),
		)
	}
	return nil, nil
}

func mostDerived(candidates []*Binding) *Binding {
	for _, c := range candidates {
		winner := true
		for _, other := range candidates {
			if other != c && !c.Key.Type.AssignableTo(other.Key.Type) {
				winner = false
				break
			}
		}
		if winner {
			return c
		}
	}
	return nil
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.bindings)
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.bindings))
	for k := range r.bindings {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)
	return keys
}
