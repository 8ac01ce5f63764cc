package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, env *testEnv) *Manager {
	t.Helper()
	m := NewManager(env.characters, env.history, env.reloader, testConfig(), quietLogger(), nil)
	t.Cleanup(m.Close)
	return m
}

func TestManagerReturnsSameSession(t *testing.T) {
	env := newTestEnv(t, &fakeClient{reply: "x"}, true)
	character := env.newCharacter(t, "c")
	manager := newTestManager(t, env)

	a := manager.Get(character.ID)
	b := manager.Get(character.ID)
	assert.Same(t, a, b)
}

func TestManagerSeparateSessionsPerCharacter(t *testing.T) {
	env := newTestEnv(t, &fakeClient{reply: "x"}, true)
	first := env.newCharacter(t, "one")
	second := env.newCharacter(t, "two")
	manager := newTestManager(t, env)

	a := manager.Get(first.ID)
	b := manager.Get(second.ID)
	assert.NotSame(t, a, b)
	assert.Equal(t, first.ID, a.CharacterID())
	assert.Equal(t, second.ID, b.CharacterID())
}

func TestManagerDropReplacesSession(t *testing.T) {
	env := newTestEnv(t, &fakeClient{reply: "x"}, true)
	character := env.newCharacter(t, "c")
	manager := newTestManager(t, env)

	original := manager.Get(character.ID)
	manager.Drop(character.ID)

	replacement := manager.Get(character.ID)
	assert.NotSame(t, original, replacement)
}

func TestManagerDropUnknownIsNoOp(t *testing.T) {
	env := newTestEnv(t, &fakeClient{reply: "x"}, true)
	manager := newTestManager(t, env)

	manager.Drop(12345)
}

func TestManagerCloseStopsSessions(t *testing.T) {
	env := newTestEnv(t, &fakeClient{reply: "x"}, true)
	character := env.newCharacter(t, "c")
	manager := newTestManager(t, env)

	session := manager.Get(character.ID)
	require.NoError(t, session.Send(context.Background(), "hello"))

	manager.Close()

	// A fresh manager hands out a working replacement
	replacement := manager.Get(character.ID)
	assert.NotSame(t, session, replacement)
}
