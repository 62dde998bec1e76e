package stitch_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/stitch"
)

func TestPrintGraphEmpty(t *testing.T) {
	t.Parallel()

	inj := newInjector(t)

	var buf bytes.Buffer
	inj.FprintGraph(&buf)
	assert.Contains(t, buf.String(), "empty injector")
}

func TestPrintGraph(t *testing.T) {
	t.Parallel()

	inj := newInjector(t, stitch.Provide(NewConfig), stitch.Provide(NewDatabase))

	out := inj.SprintGraph()
	assert.Contains(t, out, "○")
	assert.Contains(t, out, "Database")
	assert.Contains(t, out, "←")

	_ = stitch.MustInvoke[*Database](inj)
	assert.Contains(t, inj.SprintGraph(), "●")
}

func TestGraphInfo(t *testing.T) {
	t.Parallel()

	inj := newInjector(t, stitch.Provide(NewConfig), stitch.Provide(NewDatabase))
	_ = stitch.MustInvoke[*Config](inj)

	info := inj.Graph()
	require.Len(t, info.Services, 2)

	byKey := map[string]stitch.ServiceInfo{}
	for _, svc := range info.Services {
		byKey[svc.Key] = svc
	}

	cfg := byKey["*github.com/danpasecinic/stitch_test.Config"]
	db := byKey["*github.com/danpasecinic/stitch_test.Database"]

	assert.Equal(t, "shared", cfg.Scope)
	assert.True(t, cfg.Instantiated)
	assert.False(t, db.Instantiated)
	assert.Equal(t, []string{cfg.ID}, db.Dependencies)
	assert.Equal(t, []string{db.ID}, cfg.Dependents)
}

func TestPrintGraphDOT(t *testing.T) {
	t.Parallel()

	inj := newInjector(
		t,
		stitch.Provide(NewConfig),
		stitch.Provide(NewDatabase),
		stitch.Bind[Mailer, *SMTPMailer](),
	)
	_ = stitch.MustInvoke[*Config](inj)

	dot := inj.SprintGraphDOT()
	assert.True(t, strings.HasPrefix(dot, "digraph dependencies {"))
	assert.Contains(t, dot, "rankdir=LR")
	assert.Contains(t, dot, "->")
	assert.Contains(t, dot, "fillcolor=lightblue")
	assert.Contains(t, dot, "style=dashed")
	assert.Contains(t, dot, "Config (shared)")
}
