package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danpasecinic/stitch/internal/convert"
	"github.com/danpasecinic/stitch/internal/graph"
	"github.com/danpasecinic/stitch/internal/scope"
)

type State int32

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	if s == StateClosed {
		return "closed"
	}
	return "open"
}

type (
	ResolveHook func(key string, duration time.Duration, err error)
	ProvideHook func(key string, duration time.Duration, err error)
	DisposeHook func(key string, err error)
)

// Container owns the bindings of one injector together with everything
// planned for them: the node graph, the shared slots and the sessions.
type Container struct {
	mu       sync.Mutex
	parent   *Container
	registry *Registry
	graph    *graph.Graph
	logger   *slog.Logger
	state    atomic.Int32

	nodes     map[string]*node
	edges     map[edgeKey]*Edge
	autoSlots map[string]*slot

	sessionsMu sync.Mutex
	sessions   map[any]*session

	disposeMu   sync.Mutex
	disposeErrs []error

	onResolve []ResolveHook
	onProvide []ProvideHook
	onDispose []DisposeHook
}

type edgeKey struct {
	typ  reflect.Type
	name string
}

type Config struct {
	Logger    *slog.Logger
	Parent    *Container
	OnResolve []ResolveHook
	OnProvide []ProvideHook
	OnDispose []DisposeHook
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var parentRegistry *Registry
	if cfg.Parent != nil {
		parentRegistry = cfg.Parent.registry
	}

	return &Container{
		parent:    cfg.Parent,
		registry:  NewRegistry(parentRegistry),
		graph:     graph.New(),
		logger:    logger,
		nodes:     make(map[string]*node),
		edges:     make(map[edgeKey]*Edge),
		autoSlots: make(map[string]*slot),
		sessions:  make(map[any]*session),
		onResolve: cfg.OnResolve,
		onProvide: cfg.OnProvide,
		onDispose: cfg.OnDispose,
	}
}

func (c *Container) Register(b *Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b.owner = c
	b.slot = &slot{}
	if err := c.registry.Register(b); err != nil {
		return err
	}

	c.logger.Debug("registered binding", "key", b.Key.String(), "kind", b.Kind.String(), "scope", b.Scope.String())
	return nil
}

// Compile plans every binding declared on c, collecting all failures.
func (c *Container) Compile() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, b := range c.registry.Own() {
		p := &planner{c: c}
		_, err := p.plan(b.Key, defaultRequest(b.Key.Type))
		if err == nil {
			err = p.drain()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	c.logger.Debug("compiled injector", "bindings", c.registry.Size(), "nodes", len(c.nodes), "errors", len(errs))
	return errors.Join(errs...)
}

// Plan returns the edge serving a request for t under name. Edges are planned
// once and cached.
func (c *Container) Plan(t reflect.Type, name string) (*Edge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ek := edgeKey{typ: t, name: name}
	if e, ok := c.edges[ek]; ok {
		return e, nil
	}

	p := &planner{c: c}
	e, err := p.planEdge(convert.Describe(t), name, false)
	if err != nil {
		return nil, err
	}
	if err := p.drain(); err != nil {
		return nil, err
	}

	c.edges[ek] = e
	return e, nil
}

func (c *Container) planInherited(b *Binding, req scope.Request) (*node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &planner{c: c}
	n, err := p.plan(b.Key, req)
	if err != nil {
		return nil, err
	}
	return n, p.drain()
}

func (c *Container) remember(n *node) {
	c.nodes[n.id] = n
	c.graph.AddNode(n.id, n.label(), n.dependencyIDs())
}

// adopt records a node planned by an ancestor, with everything it depends on,
// so the local graph stays complete.
func (c *Container) adopt(n *node) {
	if _, ok := c.nodes[n.id]; ok {
		return
	}
	c.remember(n)
	if n.forward != nil {
		c.adopt(n.forward)
	}
	for _, e := range n.edges {
		if e.node != nil && !e.desc.Lazy {
			c.adopt(e.node)
		}
	}
}

func (c *Container) autoSlot(id string) *slot {
	if s, ok := c.autoSlots[id]; ok {
		return s
	}
	s := &slot{}
	c.autoSlots[id] = s
	return s
}

func (c *Container) Has(t reflect.Type, name string) bool {
	_, ok := c.registry.Lookup(Key{Type: t, Name: name})
	return ok
}

func (c *Container) Binding(t reflect.Type, name string) (*Binding, bool) {
	return c.registry.Lookup(Key{Type: t, Name: name})
}

func (c *Container) Keys() []string {
	return c.registry.Keys()
}

func (c *Container) Size() int {
	return c.registry.Size()
}

func (c *Container) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if missing := c.graph.Validate(); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: missing nodes %v", ErrUnresolvable, missing))
	}
	for _, path := range c.graph.CyclePaths() {
		errs = append(errs, cycleError(path))
	}
	return errors.Join(errs...)
}

func (c *Container) Graph() *graph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.graph.Clone()
}

type NodeInfo struct {
	ID           string
	Key          string
	Scope        scope.Scope
	Module       string
	Forward      bool
	Dependencies []string
	Instantiated bool
}

func (c *Container) Nodes() []NodeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]NodeInfo, 0, len(c.nodes))
	for _, n := range c.nodes {
		info := NodeInfo{
			ID:           n.id,
			Key:          n.key.String(),
			Scope:        n.scope,
			Forward:      n.forward != nil,
			Dependencies: n.dependencyIDs(),
		}
		if n.binding != nil {
			info.Module = n.binding.Module
		}
		if n.slot != nil && n.scope == scope.Shared {
			info.Instantiated = n.slot.loaded()
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b NodeInfo) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return infos
}

func (c *Container) State() State {
	return State(c.state.Load())
}

func (c *Container) closed() bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.State() == StateClosed {
			return true
		}
	}
	return false
}

// Preload builds every shared instance owned by c, dependencies first.
func (c *Container) Preload(ctx context.Context) error {
	c.mu.Lock()
	order, err := c.graph.TopologicalSort()
	var shared []*node
	if err == nil {
		for _, id := range order {
			if n, ok := c.nodes[id]; ok && n.home == c && n.forward == nil && n.scope == scope.Shared {
				shared = append(shared, n)
			}
		}
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	for _, n := range shared {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.instantiate(ctx, n); err != nil {
			return err
		}
	}

	c.logger.Debug("preloaded shared instances", "count", len(shared))
	return nil
}

// Close drops every shared instance and ends every session. Instances still
// held through counted handles are disposed when the last handle is released.
func (c *Container) Close() error {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		return nil
	}

	c.mu.Lock()
	order, err := c.graph.ReverseTopologicalSort()
	if err != nil {
		order = c.graph.Nodes()
	}
	var slots []*slot
	for _, id := range order {
		if n, ok := c.nodes[id]; ok && n.home == c && n.forward == nil && n.scope == scope.Shared {
			slots = append(slots, n.slot)
		}
	}
	c.mu.Unlock()

	c.disposeMu.Lock()
	c.disposeErrs = nil
	c.disposeMu.Unlock()

	for _, s := range slots {
		s.drop()
	}

	c.sessionsMu.Lock()
	sessions := c.sessions
	c.sessions = make(map[any]*session)
	c.sessionsMu.Unlock()
	for _, s := range sessions {
		s.end()
	}

	c.disposeMu.Lock()
	defer c.disposeMu.Unlock()

	c.logger.Debug("closed injector", "shared", len(slots), "sessions", len(sessions), "errors", len(c.disposeErrs))
	return errors.Join(c.disposeErrs...)
}
