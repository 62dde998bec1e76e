package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduceFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		request Request
		want    Scope
	}{
		{ByValue, Unique},
		{ByReference, Shared},
		{ByOwner, Unique},
		{ByCounted, Shared},
	}

	for _, tt := range tests {
		t.Run(tt.request.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DeduceFor(tt.request))
		})
	}
}

func TestResolve_ExplicitScopeWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Session, Resolve(Session, ByOwner))
	assert.Equal(t, Shared, Resolve(Deduce, ByCounted))
	assert.Equal(t, Unique, Resolve(Deduce, ByValue))
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	assert.True(t, Compatible(Unique, ByOwner))
	assert.False(t, Compatible(Shared, ByOwner))
	assert.False(t, Compatible(Session, ByOwner))
	assert.False(t, Compatible(External, ByOwner))

	for _, s := range []Scope{Unique, Shared, Session, External} {
		assert.True(t, Compatible(s, ByValue), s.String())
		assert.True(t, Compatible(s, ByReference), s.String())
		assert.True(t, Compatible(s, ByCounted), s.String())
	}
}

func TestCaptures(t *testing.T) {
	t.Parallel()

	assert.False(t, Captures(Shared, Session))
	assert.True(t, Captures(Session, Shared))
	assert.True(t, Captures(Unique, Session))
	assert.True(t, Captures(Shared, External))
}

func TestScope_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "deduce", Deduce.String())
	assert.Equal(t, "unique", Unique.String())
	assert.Equal(t, "shared", Shared.String())
	assert.Equal(t, "session", Session.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "unknown", Scope(42).String())
	assert.True(t, Shared.Stored())
	assert.False(t, External.Stored())
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), "user-1")
	token, ok := SessionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", token)
}
