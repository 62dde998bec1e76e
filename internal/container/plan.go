package container

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/danpasecinic/stitch/internal/convert"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

// node is one planned construction: a key served under a concrete scope.
type node struct {
	id      string
	key     Key
	scope   scope.Scope
	binding *Binding
	prov    *provider
	edges   []*Edge
	slot    *slot
	forward *node
	home    *Container
	session bool
}

func (n *node) dependencyIDs() []string {
	if n.forward != nil {
		return []string{n.forward.id}
	}
	var ids []string
	for _, e := range n.edges {
		if e.node != nil && !e.desc.Lazy {
			ids = append(ids, e.node.id)
		}
	}
	return ids
}

func (n *node) label() string {
	return n.key.String() + " [" + n.scope.String() + "]"
}

// Edge is a planned request: which node serves it and how the instance is
// shaped for the requester.
type Edge struct {
	desc     convert.Descriptor
	target   convert.Descriptor
	name     string
	node     *node
	optional bool
}

func (e *Edge) Key() string {
	return ireflect.NamedKey(e.desc.Type, e.name)
}

func (e *Edge) Scope() scope.Scope {
	if e.node == nil {
		return scope.Deduce
	}
	return e.node.scope
}

func nodeID(k Key, s scope.Scope) string {
	return k.String() + "@" + s.String()
}

type planner struct {
	c       *Container
	stack   []Key
	pending []*Edge
}

func (p *planner) path() []string {
	path := make([]string, 0, len(p.stack)+1)
	for _, k := range p.stack {
		path = append(path, k.String())
	}
	return path
}

func (p *planner) enter(k Key) error {
	if i := slices.Index(p.stack, k); i >= 0 {
		cycle := make([]string, 0, len(p.stack)-i+1)
		for _, sk := range p.stack[i:] {
			cycle = append(cycle, sk.String())
		}
		return cycleError(append(cycle, k.String()))
	}
	p.stack = append(p.stack, k)
	return nil
}

func (p *planner) leave() {
	p.stack = p.stack[:len(p.stack)-1]
}

// drain plans the targets of lazy edges. They are planned outside the
// resolving stack since they are only resolved on demand.
func (p *planner) drain() error {
	for len(p.pending) > 0 {
		e := p.pending[0]
		p.pending = p.pending[1:]

		n, err := p.plan(Key{Type: e.target.Elem, Name: e.name}, e.target.Request())
		if err != nil {
			if e.optional && errors.Is(err, ErrUnresolvable) {
				continue
			}
			return err
		}
		if err := compatible(n, e); err != nil {
			return err
		}
		e.node = n
	}
	return nil
}

func compatible(n *node, e *Edge) error {
	if scope.Compatible(n.scope, e.target.Request()) {
		return nil
	}
	return newError(
		e.Key(), nil,
		fmt.Errorf("%w: %s requested as %s but %s is %s", ErrScopeMismatch, e.desc, e.target.Request(), n.key, n.scope),
	)
}

func (p *planner) planEdge(d convert.Descriptor, name string, optional bool) (*Edge, error) {
	target := d.Target()
	key := Key{Type: target.Elem, Name: name}

	if pd, ok := target.Pointer(); ok {
		if _, bound := p.c.registry.Lookup(key); !bound {
			elemKey := Key{Type: pd.Elem, Name: name}
			if _, boundElem := p.c.registry.Lookup(elemKey); boundElem {
				target, key = pd, elemKey
			}
		}
	}

	e := &Edge{desc: d, target: target, name: name, optional: optional}
	if d.Lazy {
		p.pending = append(p.pending, e)
		return e, nil
	}

	n, err := p.plan(key, target.Request())
	if err != nil {
		if optional && errors.Is(err, ErrUnresolvable) {
			return e, nil
		}
		return nil, err
	}
	if err := compatible(n, e); err != nil {
		return nil, err
	}
	e.node = n
	return e, nil
}

func (p *planner) plan(k Key, req scope.Request) (*node, error) {
	if err := p.enter(k); err != nil {
		return nil, err
	}
	defer p.leave()

	if b, ok := p.c.registry.Lookup(k); ok {
		return p.planBinding(b, req)
	}

	impl, err := p.c.registry.Implementor(k)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = p.path()
		}
		return nil, err
	}
	if impl != nil {
		target, err := p.planBinding(impl, req)
		if err != nil {
			return nil, err
		}
		return p.forward(k, target), nil
	}

	return p.planAuto(Key{Type: k.Type}, req)
}

func (p *planner) planAuto(k Key, req scope.Request) (*node, error) {
	s := scope.DeduceFor(req)
	id := nodeID(k, s)
	if n, ok := p.c.nodes[id]; ok {
		return n, nil
	}

	prov, err := structProvider(k.Type)
	if err != nil {
		return nil, newError(k.String(), p.path(), err)
	}

	n := &node{id: id, key: k, scope: s, prov: prov, home: p.c}
	if s.Stored() {
		n.slot = p.c.autoSlot(id)
	}
	return n, p.build(n)
}

func (p *planner) forward(k Key, target *node) *node {
	id := nodeID(k, target.scope) + "->" + target.id
	if n, ok := p.c.nodes[id]; ok {
		return n
	}
	n := &node{
		id:      id,
		key:     k,
		scope:   target.scope,
		forward: target,
		home:    target.home,
		session: target.session,
	}
	p.c.remember(n)
	return n
}

// planBinding is only called from plan, which has entered the requested key.
func (p *planner) planBinding(b *Binding, req scope.Request) (*node, error) {
	s := scope.Resolve(b.Scope, req)
	if b.owner != p.c && s.Stored() {
		n, err := b.owner.planInherited(b, req)
		if err != nil {
			return nil, err
		}
		p.c.adopt(n)
		return n, nil
	}

	if b.Kind == KindAlias && b.Scope == scope.Deduce {
		target, err := p.plan(Key{Type: b.Target}, req)
		if err != nil {
			return nil, err
		}
		return p.forward(b.Key, target), nil
	}

	id := nodeID(b.Key, s)
	if n, ok := p.c.nodes[id]; ok {
		return n, nil
	}

	prov := b.prov
	if b.Kind == KindAlias {
		var err error
		if prov, err = p.aliasProvider(b); err != nil {
			return nil, err
		}
	}

	n := &node{id: id, key: b.Key, scope: s, binding: b, prov: prov, home: b.owner}
	if s.Stored() {
		n.slot = b.slot
	}
	if s == scope.Session {
		n.session = true
	}
	return n, p.build(n)
}

func (p *planner) aliasProvider(b *Binding) (*provider, error) {
	implKey := Key{Type: b.Target}
	ib, ok := p.c.registry.Lookup(implKey)
	if !ok {
		prov, err := structProvider(b.Target)
		if err != nil {
			return nil, newError(b.Key.String(), p.path(), err)
		}
		return prov, nil
	}
	if ib.Kind != KindFunc && ib.Kind != KindStruct {
		return nil, newError(
			b.Key.String(), nil,
			fmt.Errorf("%w: scoped alias needs a constructor for %s, found %s binding", ErrInvalidBinding, b.Target, ib.Kind),
		)
	}
	return ib.prov, nil
}

// build plans the dependencies of n. The caller has already entered the key
// n was requested under.
func (p *planner) build(n *node) error {
	for _, dep := range n.prov.dependencies() {
		e, err := p.planEdge(convert.Describe(dep.Type), dep.Name, dep.Optional)
		if err != nil {
			return err
		}
		if e.node != nil && !e.desc.Lazy {
			if e.node.session && n.scope != scope.Session {
				if !scope.Captures(n.scope, scope.Session) {
					return newError(
						n.key.String(), append(p.path(), e.node.key.String()),
						fmt.Errorf("%w: %s [%s] depends on %s", ErrCaptive, n.key, n.scope, e.node.label()),
					)
				}
				n.session = true
			}
		}
		n.edges = append(n.edges, e)
	}

	p.c.remember(n)
	p.c.logger.Debug("planned node", "node", n.id, "scope", n.scope.String(), "dependencies", len(n.edges))
	return nil
}

func defaultRequest(t reflect.Type) scope.Request {
	if ireflect.IsReference(t) {
		return scope.ByReference
	}
	return scope.ByValue
}
