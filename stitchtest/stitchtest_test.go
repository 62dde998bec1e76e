package stitchtest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danpasecinic/stitch"
	"github.com/danpasecinic/stitch/stitchtest"
)

type Config struct {
	Port int
	Host string
}

type Database struct {
	Config *Config
}

func NewDatabase(cfg *Config) *Database {
	return &Database{Config: cfg}
}

type Visit struct {
	ID int
}

type UserRepository interface {
	FindByID(id int) string
}

type MockUserRepository struct {
	FindByIDFn func(id int) string
}

func (m *MockUserRepository) FindByID(id int) string {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(id)
	}
	return ""
}

type recorder struct {
	failed   bool
	message  string
	cleanups []func()
}

func (r *recorder) Helper() {}

func (r *recorder) Fatal(args ...any) {
	r.failed = true
	r.message = fmt.Sprint(args...)
}

func (r *recorder) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = fmt.Sprintf(format, args...)
}

func (r *recorder) Cleanup(f func()) {
	r.cleanups = append(r.cleanups, f)
}

func (r *recorder) finish() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(t)
	if ti == nil {
		t.Fatal("New() returned nil")
	}
	if ti.Size() != 0 {
		t.Errorf("expected empty injector, got %d bindings", ti.Size())
	}
}

func TestNewClosesOnCleanup(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ti := stitchtest.New(rec, stitch.External(&Config{Port: 8080}))
	if ti.Closed() {
		t.Fatal("injector closed before the test finished")
	}

	rec.finish()
	if !ti.Closed() {
		t.Error("expected injector to be closed after cleanup")
	}
	if rec.failed {
		t.Errorf("unexpected failure: %s", rec.message)
	}
}

func TestNewFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ti := stitchtest.New(rec, stitch.Provide(func(host string) *Config { return &Config{Host: host} }))
	if !rec.failed {
		t.Fatal("expected build failure to fail the test")
	}
	if ti != nil {
		t.Error("expected nil injector")
	}
}

func TestReplace(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(t, stitch.External(&Config{Port: 8080, Host: "localhost"}))
	replaced := stitchtest.Replace(ti, &Config{Port: 9090, Host: "testhost"})

	cfg := stitchtest.MustInvoke[*Config](replaced)
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Host != "testhost" {
		t.Errorf("expected host testhost, got %s", cfg.Host)
	}

	original := stitchtest.MustInvoke[*Config](ti)
	if original.Port != 8080 {
		t.Errorf("expected original port 8080, got %d", original.Port)
	}
}

func TestReplaceNamed(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(
		t,
		stitch.External(&Config{Port: 5432}, stitch.WithName("primary")),
		stitch.External(&Config{Port: 5433}, stitch.WithName("replica")),
	)
	replaced := stitchtest.ReplaceNamed(ti, "primary", &Config{Port: 9999})

	primary := stitchtest.MustInvokeNamed[*Config](replaced, "primary")
	if primary.Port != 9999 {
		t.Errorf("expected port 9999, got %d", primary.Port)
	}

	replica := stitchtest.MustInvokeNamed[*Config](replaced, "replica")
	if replica.Port != 5433 {
		t.Errorf("expected port 5433, got %d", replica.Port)
	}
}

func TestOverrideDependent(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(t, stitch.External(&Config{Port: 8080}), stitch.Provide(NewDatabase))
	overridden := stitchtest.Override(ti, stitch.External(&Config{Port: 3000}), stitch.Provide(NewDatabase))

	db := stitchtest.MustInvoke[*Database](overridden)
	if db.Config.Port != 3000 {
		t.Errorf("expected database to use replaced config with port 3000, got %d", db.Config.Port)
	}

	db = stitchtest.MustInvoke[*Database](ti)
	if db.Config.Port != 8080 {
		t.Errorf("expected parent database to keep port 8080, got %d", db.Config.Port)
	}
}

func TestReplaceWithMock(t *testing.T) {
	t.Parallel()

	actual := &MockUserRepository{
		FindByIDFn: func(int) string { return "real-user" },
	}
	ti := stitchtest.New(t, stitch.External[UserRepository](actual))

	mock := &MockUserRepository{
		FindByIDFn: func(id int) string { return fmt.Sprintf("test-user-%d", id) },
	}
	replaced := stitchtest.Replace[UserRepository](ti, mock)

	repo := stitchtest.MustInvoke[UserRepository](replaced)
	if got := repo.FindByID(5); got != "test-user-5" {
		t.Errorf("expected 'test-user-5', got '%s'", got)
	}
}

func TestAssertHas(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(
		t,
		stitch.External(&Config{Port: 8080}),
		stitch.External(&Config{Port: 9090}, stitch.WithName("admin")),
	)

	stitchtest.AssertHas[*Config](ti)
	stitchtest.AssertHasNamed[*Config](ti, "admin")
	stitchtest.AssertNotHas[*Database](ti)
}

func TestAssertHasFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ti := stitchtest.New(rec)
	stitchtest.AssertHas[*Config](ti)
	if !rec.failed {
		t.Fatal("expected assertion to fail")
	}
	if rec.message != "expected injector to have *stitchtest_test.Config" {
		t.Errorf("unexpected message: %s", rec.message)
	}
	rec.finish()
}

func TestRequireValidate(t *testing.T) {
	t.Parallel()

	ti := stitchtest.New(t, stitch.External(&Config{Port: 8080}), stitch.Provide(NewDatabase))
	ti.RequireValidate()
}

func TestRequirePreloadAndClose(t *testing.T) {
	t.Parallel()

	built := 0
	ti := stitchtest.New(
		t, stitch.Provide(
			func() *Config {
				built++
				return &Config{Port: 8080}
			},
		),
	)

	ti.RequirePreload(context.Background())
	if built != 1 {
		t.Errorf("expected provider to run once, got %d", built)
	}

	ti.RequireClose()
	if !ti.Closed() {
		t.Error("expected injector to be closed")
	}
}

func TestMustInvokeFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ti := stitchtest.New(
		rec, stitch.Provide(
			func() (*Config, error) {
				return nil, errors.New("initialization failed")
			},
		),
	)

	cfg := stitchtest.MustInvoke[*Config](ti)
	if !rec.failed {
		t.Error("expected provider error to fail the test")
	}
	if cfg != nil {
		t.Error("expected nil config")
	}
	rec.finish()
}

func TestSession(t *testing.T) {
	t.Parallel()

	next := 0
	ti := stitchtest.New(
		t, stitch.Provide(
			func() *Visit {
				next++
				return &Visit{ID: next}
			}, stitch.WithScope(stitch.Session),
		),
	)

	first := stitchtest.Session(ti)
	second := stitchtest.Session(ti)

	a := stitchtest.MustInvokeCtx[*Visit](first, ti)
	b := stitchtest.MustInvokeCtx[*Visit](first, ti)
	c := stitchtest.MustInvokeCtx[*Visit](second, ti)

	if a != b {
		t.Error("expected the same instance within a session")
	}
	if a == c {
		t.Error("expected a new instance for another session")
	}
}
