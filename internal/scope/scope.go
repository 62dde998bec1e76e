package scope

import "context"

type Scope int

const (
	Deduce Scope = iota
	Unique
	Shared
	Session
	External
)

func (s Scope) String() string {
	switch s {
	case Deduce:
		return "deduce"
	case Unique:
		return "unique"
	case Shared:
		return "shared"
	case Session:
		return "session"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Stored reports whether instances of the scope live in a slot.
func (s Scope) Stored() bool {
	return s == Shared || s == Session
}

// Request is the shape of a use site as far as scope selection cares.
type Request int

const (
	ByValue Request = iota
	ByReference
	ByOwner
	ByCounted
)

func (r Request) String() string {
	switch r {
	case ByValue:
		return "value"
	case ByReference:
		return "reference"
	case ByOwner:
		return "exclusive owner"
	case ByCounted:
		return "counted handle"
	default:
		return "unknown"
	}
}

func Resolve(declared Scope, r Request) Scope {
	if declared != Deduce {
		return declared
	}
	return DeduceFor(r)
}

func DeduceFor(r Request) Scope {
	switch r {
	case ByOwner:
		return Unique
	case ByCounted, ByReference:
		return Shared
	default:
		return Unique
	}
}

// Compatible reports whether an instance held under s can be handed out in
// the requested shape. Exclusive ownership is only possible for instances
// nobody else can observe.
func Compatible(s Scope, r Request) bool {
	if r == ByOwner {
		return s == Unique
	}
	return true
}

// Captures reports whether a holder in scope s may keep a dependency in
// scope dep for its whole lifetime.
func Captures(s, dep Scope) bool {
	return !(s == Shared && dep == Session)
}

type sessionKey struct{}

func WithSession(ctx context.Context, token any) context.Context {
	return context.WithValue(ctx, sessionKey{}, token)
}

func SessionFrom(ctx context.Context) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	token := ctx.Value(sessionKey{})
	return token, token != nil
}
