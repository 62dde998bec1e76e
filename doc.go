// Package stitch provides a dependency injector for Go 1.25+ that plans the
// whole object graph before constructing anything.
//
// Declarations describe which implementation serves each type and in which
// scope. New turns them into a resolution plan and rejects unresolvable,
// cyclic, ambiguous and scope-incompatible graphs right away. Once an injector
// has been built, resolving fails only when a provider returns an error, a
// session token is missing or the injector was closed.
//
// # Quick Start
//
//	inj, err := stitch.New(
//	    stitch.Provide(NewConfig),
//	    stitch.Provide(NewServer),
//	)
//	if err != nil {
//	    return err
//	}
//	defer inj.Close()
//
//	srv, err := stitch.Invoke[*Server](inj)
//
// # Declarations
//
//	stitch.Provide(ctor)                  // bind the constructor's result type
//	stitch.Bind[Repository, *PgRepo]()    // serve an interface with an implementation
//	stitch.Self[*UserService]()           // construct a struct from its tagged fields
//	stitch.External[*sql.DB](db)          // bind an instance built elsewhere
//
// Every declaration accepts WithName and WithScope.
//
// Constructors take their dependencies as parameters. A context.Context
// parameter receives the context passed to Invoke. A struct that embeds
// stitch.In is a parameter object; its fields are resolved one by one and may
// be tagged:
//
//	type ServerParams struct {
//	    stitch.In
//
//	    Config *Config
//	    Log    *slog.Logger `stitch:"access"`
//	    Cache  Cache        `stitch:",optional"`
//	}
//
// Types that are not bound are constructed implicitly when they are structs
// or pointers to structs: the zero value is allocated and its tagged fields
// are injected.
//
// # Resolution Order
//
// A request for T named n is served by, in order:
//
//  1. the binding for (T, n)
//  2. the binding for (T, "")
//  3. for T = *S without a binding, a pointer into the binding for S
//  4. for an interface, the most derived visible binding implementing it
//  5. the implicit construction of T
//
// # Scopes
//
//	stitch.Provide(NewPool, stitch.WithScope(stitch.Shared))
//
// Unique creates an instance per request. Shared keeps one instance per
// declaring injector. Session keeps one instance per token:
//
//	ctx = stitch.WithSession(ctx, requestID)
//	repo, err := stitch.InvokeCtx[*Repo](ctx, inj)
//	defer inj.EndSession(requestID)
//
// Without WithScope the scope is deduced from each request: Owned asks for a
// unique instance; Counted, pointers, interfaces, maps, channels and funcs ask
// for a shared one; everything else is unique.
//
// A shared instance may not depend on a session instance; New reports that as
// a captive dependency.
//
// # Representations
//
// The same binding can be requested in several shapes:
//
//	stitch.Invoke[Config](inj)                   // a copy
//	stitch.Invoke[*Config](inj)                  // the shared instance
//	stitch.Invoke[stitch.Owned[*Conn]](inj)      // exclusive ownership
//	stitch.Invoke[stitch.Counted[*Pool]](inj)    // a counted share
//	stitch.Invoke[stitch.Provider[*Conn]](inj)   // a lazy factory
//	stitch.InvokeNamed[stitch.Named[*DB]](inj, "replica")
//
// Owned and Counted handles must be released. Instances that implement
// io.Closer are closed when their last owner lets go of them. Provider
// dependencies are resolved on demand, so they may close a cycle.
//
// # Modules
//
//	var Storage = stitch.NewModule("storage").
//	    Add(stitch.Provide(NewDB), stitch.Bind[Repository, *PgRepo]())
//
//	var App = stitch.NewModule("app").Include(Storage)
//
// Types implementing Configurer declare bindings in code and are added with
// Install:
//
//	type Storage struct{ DSN string }
//
//	func (s Storage) Configure(b *stitch.Binder) error {
//	    return b.Declare(stitch.External(s.DSN, stitch.WithName("dsn")))
//	}
//
//	inj, err := stitch.New(stitch.Install(Storage{DSN: dsn}))
//
// # Child Injectors
//
//	child, err := inj.Child(stitch.Provide(NewFakeMailer))
//
// A child sees every binding of its parent and may override them. Inherited
// shared instances are shared with the parent.
//
// # Debug Visualization
//
//	inj.PrintGraph()           // ASCII to stdout
//	inj.PrintGraphDOT()        // Graphviz DOT to stdout
//	info := inj.Graph()        // Structured GraphInfo
//
// # Metrics Observers
//
//	inj, err := stitch.New(
//	    stitch.WithResolveObserver(func(key string, d time.Duration, err error) {
//	        metrics.RecordResolve(key, d, err)
//	    }),
//	    stitch.WithDisposeObserver(func(key string, err error) {
//	        metrics.RecordDispose(key, err)
//	    }),
//	)
package stitch
