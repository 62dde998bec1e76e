package stitch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/stitch"
)

type StorageModule struct {
	DSN string
}

func (m StorageModule) Configure(b *stitch.Binder) error {
	return b.Declare(
		stitch.External(m.DSN, stitch.WithName("dsn")),
		stitch.Provide(NewConfig),
	)
}

type AppModule struct{}

func (*AppModule) Configure(b *stitch.Binder) error {
	return b.Declare(
		stitch.Install(StorageModule{DSN: "postgres://app"}),
		stitch.Install(StorageModule{DSN: "postgres://app"}),
		stitch.Provide(NewDatabase),
	)
}

type PlaceholderModule struct {
	stitch.NoConfigure
}

type OverridingModule struct {
	stitch.NoConfigure
}

func (OverridingModule) Configure(b *stitch.Binder) error {
	return b.Declare(stitch.Provide(NewConfig))
}

type BrokenModule struct{}

func (BrokenModule) Configure(*stitch.Binder) error {
	return errors.New("missing credentials")
}

type moduleRecorder struct {
	seen *string
}

func (m moduleRecorder) Configure(b *stitch.Binder) error {
	*m.seen = b.Module()
	return nil
}

func TestModuleBasic(t *testing.T) {
	t.Parallel()

	m := stitch.NewModule("config")
	assert.Equal(t, "config", m.Name())

	inj := newInjector(t, m)
	assert.Equal(t, 0, inj.Size())
}

func TestModuleAdd(t *testing.T) {
	t.Parallel()

	m := stitch.NewModule("storage").
		Add(stitch.Provide(NewConfig)).
		Add(stitch.Provide(NewDatabase))

	inj := newInjector(t, m)
	db := stitch.MustInvoke[*Database](inj)
	assert.Equal(t, 8080, db.Config.Port)
}

func TestModuleInclude(t *testing.T) {
	t.Parallel()

	config := stitch.NewModule("config").Add(stitch.Provide(NewConfig))
	storage := stitch.NewModule("storage").Include(config).Add(stitch.Provide(NewDatabase))
	http := stitch.NewModule("http").Include(config).Add(stitch.Provide(NewServer))
	app := stitch.NewModule("app").Include(storage, http)

	inj := newInjector(t, app)
	assert.Equal(t, 3, inj.Size())

	srv := stitch.MustInvoke[*Server](inj)
	assert.Same(t, srv.Config, srv.DB.Config)

	modules := map[string]string{}
	for _, svc := range inj.Graph().Services {
		modules[svc.Key] = svc.Module
	}
	assert.Contains(t, modules, "*github.com/danpasecinic/stitch_test.Server")
	assert.Equal(t, "http", modules["*github.com/danpasecinic/stitch_test.Server"])
}

func TestModuleFailure(t *testing.T) {
	t.Parallel()

	m := stitch.NewModule("broken").Add(stitch.Provide(42))

	_, err := stitch.New(m)
	require.Error(t, err)
	assert.True(t, stitch.IsModuleFailed(err))
	assert.True(t, stitch.IsInvalidBinding(err))
}

func TestInstall(t *testing.T) {
	t.Parallel()

	inj := newInjector(t, stitch.Install(&AppModule{}))
	assert.Equal(t, 3, inj.Size())

	assert.Equal(t, "postgres://app", stitch.MustInvokeNamed[string](inj, "dsn"))
	assert.NotNil(t, stitch.MustInvoke[*Database](inj))
}

func TestInstallValueWithPointerReceiver(t *testing.T) {
	t.Parallel()

	inj := newInjector(t, stitch.Install(AppModule{}))
	assert.Equal(t, 3, inj.Size())
}

func TestInstallTwice(t *testing.T) {
	t.Parallel()

	m := StorageModule{DSN: "sqlite://test"}
	inj := newInjector(t, stitch.Install(m), stitch.Install(m))
	assert.Equal(t, 2, inj.Size())

	_, err := stitch.New(
		stitch.Install(StorageModule{DSN: "a"}),
		stitch.Install(StorageModule{DSN: "b"}),
	)
	assert.True(t, stitch.IsDuplicateBinding(err))
}

func TestInstallNoConfigure(t *testing.T) {
	t.Parallel()

	inj := newInjector(t, stitch.Install(PlaceholderModule{}))
	assert.Equal(t, 0, inj.Size())

	inj = newInjector(t, stitch.Install(OverridingModule{}))
	assert.Equal(t, 1, inj.Size())
}

func TestInstallFailure(t *testing.T) {
	t.Parallel()

	_, err := stitch.New(stitch.Install(BrokenModule{}))
	require.Error(t, err)
	assert.True(t, stitch.IsModuleFailed(err))
	assert.ErrorContains(t, err, "missing credentials")

	_, err = stitch.New(stitch.Install(nil))
	assert.True(t, stitch.IsInvalidBinding(err))
}

func TestInstallModuleName(t *testing.T) {
	t.Parallel()

	var seen string
	_ = newInjector(t, stitch.Install(moduleRecorder{seen: &seen}))
	assert.Equal(t, "moduleRecorder", seen)
}

func TestInstallModuleValue(t *testing.T) {
	t.Parallel()

	m := stitch.NewModule("config").Add(stitch.Provide(NewConfig))
	inj := newInjector(t, stitch.Install(m), m)
	assert.Equal(t, 1, inj.Size())
}
