package container

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/danpasecinic/stitch/internal/convert"
)

// slot holds the single instance of a shared node. The slot keeps one
// reference until it is dropped.
type slot struct {
	mu       sync.Mutex
	alloc    *convert.Allocation
	building atomic.Bool
}

func (s *slot) get(build func() (*convert.Allocation, error)) (*convert.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alloc != nil {
		return s.alloc, nil
	}
	s.building.Store(true)
	a, err := build()
	s.building.Store(false)
	if err != nil {
		return nil, err
	}
	s.alloc = a
	return a, nil
}

func (s *slot) loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc != nil
}

// drop releases the slot's reference and reports whether the instance was
// disposed as a result.
func (s *slot) drop() bool {
	s.mu.Lock()
	a := s.alloc
	s.alloc = nil
	s.mu.Unlock()

	if a == nil {
		return false
	}
	return a.Release()
}

type buildingKey struct{}

type buildFrame struct {
	slot *slot
	next *buildFrame
}

// withBuilding marks s as under construction for everything resolved
// through ctx.
func withBuilding(ctx context.Context, s *slot) context.Context {
	next, _ := ctx.Value(buildingKey{}).(*buildFrame)
	return context.WithValue(ctx, buildingKey{}, &buildFrame{slot: s, next: next})
}

// building reports whether ctx descends from the construction of s and s is
// still being built. Waiting on the slot's lock from there never returns.
func building(ctx context.Context, s *slot) bool {
	if !s.building.Load() {
		return false
	}
	for f, _ := ctx.Value(buildingKey{}).(*buildFrame); f != nil; f = f.next {
		if f.slot == s {
			return true
		}
	}
	return false
}

// session keeps one slot per session-scoped node for a single token.
type session struct {
	mu    sync.Mutex
	slots map[*slot]*slot
	order []*slot
}

func (s *session) slot(key *slot) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[key]; ok {
		return sl
	}
	sl := &slot{}
	s.slots[key] = sl
	s.order = append(s.order, sl)
	return sl
}

func (s *session) end() {
	s.mu.Lock()
	order := slices.Clone(s.order)
	s.slots = make(map[*slot]*slot)
	s.order = nil
	s.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		order[i].drop()
	}
}

func (c *Container) session(token any) (*session, error) {
	if !reflect.ValueOf(token).Comparable() {
		return nil, fmt.Errorf("%w: token of type %T is not comparable", ErrSessionRequired, token)
	}

	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()

	s, ok := c.sessions[token]
	if !ok {
		s = &session{slots: make(map[*slot]*slot)}
		c.sessions[token] = s
	}
	return s, nil
}

// EndSession drops every instance created for token. It reports whether the
// session existed.
func (c *Container) EndSession(token any) bool {
	if token == nil || !reflect.ValueOf(token).Comparable() {
		return false
	}

	c.sessionsMu.Lock()
	s, ok := c.sessions[token]
	delete(c.sessions, token)
	c.sessionsMu.Unlock()

	if ok {
		s.end()
		c.logger.Debug("ended session", "token", fmt.Sprint(token))
	}
	return ok
}

func (c *Container) Sessions() int {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	return len(c.sessions)
}
