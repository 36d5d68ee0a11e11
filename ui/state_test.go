package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdesk/models"
)

func seededState(messages ...models.Message) State {
	state, _ := Reduce(State{}, ListLoaded{Messages: messages})
	return state
}

func TestReduceMountRequestsList(t *testing.T) {
	state, effects := Reduce(State{}, Mount{})
	assert.Equal(t, State{}, state)
	assert.Equal(t, []Effect{{Kind: EffectList}}, effects)

	_, effects = Reduce(State{}, Reload{})
	assert.Equal(t, []Effect{{Kind: EffectList}}, effects)
}

func TestReduceListLoadedReplacesAndDropsEditState(t *testing.T) {
	state := seededState(models.Message{ID: "a", Message: "hi"})
	state, _ = Reduce(state, ToggleEdit{ID: "a"})
	state, _ = Reduce(state, EditChanged{ID: "a", Value: "draft"})

	state, effects := Reduce(state, ListLoaded{Messages: []models.Message{
		{ID: "a", Message: "hi"},
		{ID: "b", Message: "there", Sender: "me"},
	}})
	assert.Empty(t, effects)
	require.Len(t, state.Messages, 2)
	assert.False(t, state.Messages[0].Editing)
	assert.Empty(t, state.Messages[0].UpdatedMessage)
	assert.Equal(t, "me", state.Messages[1].Sender)
}

func TestReduceListFailedKeepsMessages(t *testing.T) {
	state := seededState(models.Message{ID: "a", Message: "hi"})

	next, effects := Reduce(state, ListFailed{Err: errors.New("boom")})
	assert.Empty(t, effects)
	assert.Equal(t, state, next)
}

func TestReduceComposeAllowsEmptyText(t *testing.T) {
	state, _ := Reduce(State{ComposeText: "x"}, ComposeChanged{Text: ""})
	assert.Empty(t, state.ComposeText)

	state, effects := Reduce(state, Send{})
	assert.True(t, state.Sending)
	assert.Equal(t, []Effect{{Kind: EffectCreate, Body: ""}}, effects)
}

func TestReduceSendLifecycle(t *testing.T) {
	state, _ := Reduce(State{}, ComposeChanged{Text: "hello"})
	state, effects := Reduce(state, Send{})
	require.True(t, state.Sending)
	assert.Equal(t, []Effect{{Kind: EffectCreate, Body: "hello"}}, effects)

	// A second send while one is in flight is not blocked.
	_, effects = Reduce(state, Send{})
	assert.Equal(t, []Effect{{Kind: EffectCreate, Body: "hello"}}, effects)

	failed, effects := Reduce(state, SendFinished{Err: errors.New("offline")})
	assert.False(t, failed.Sending)
	assert.Equal(t, "hello", failed.ComposeText)
	assert.Empty(t, effects)

	done, effects := Reduce(state, SendFinished{ID: "new"})
	assert.False(t, done.Sending)
	assert.Empty(t, done.ComposeText)
	assert.Equal(t, []Effect{{Kind: EffectList}}, effects)
}

func TestReduceToggleEditTwiceRestores(t *testing.T) {
	state := seededState(
		models.Message{ID: "a", Message: "one"},
		models.Message{ID: "b", Message: "two"},
	)

	toggled, effects := Reduce(state, ToggleEdit{ID: "a"})
	assert.Empty(t, effects)
	assert.True(t, toggled.Messages[0].Editing)
	assert.False(t, toggled.Messages[1].Editing)
	assert.Empty(t, toggled.Messages[0].UpdatedMessage, "edit buffer is not seeded")
	assert.False(t, state.Messages[0].Editing, "previous state must not change")

	restored, _ := Reduce(toggled, ToggleEdit{ID: "a"})
	assert.Equal(t, state, restored)
}

func TestReduceToggleEditUnknownIDIsNoop(t *testing.T) {
	state := seededState(models.Message{ID: "a", Message: "one"})

	next, effects := Reduce(state, ToggleEdit{ID: "missing"})
	assert.Empty(t, effects)
	assert.Equal(t, state, next)
}

func TestReduceEditChangedTouchesOneEntry(t *testing.T) {
	state := seededState(
		models.Message{ID: "a", Message: "one"},
		models.Message{ID: "b", Message: "two"},
	)

	next, _ := Reduce(state, EditChanged{ID: "b", Value: "deux"})
	assert.Empty(t, next.Messages[0].UpdatedMessage)
	assert.Equal(t, "deux", next.Messages[1].UpdatedMessage)
	assert.Empty(t, state.Messages[1].UpdatedMessage)
}

func TestReduceSaveUsesEditBuffer(t *testing.T) {
	state := seededState(models.Message{ID: "a", Message: "hi"})
	state, _ = Reduce(state, ToggleEdit{ID: "a"})
	state, _ = Reduce(state, EditChanged{ID: "a", Value: "bye"})

	_, effects := Reduce(state, Save{ID: "a"})
	assert.Equal(t, []Effect{{Kind: EffectUpdate, ID: "a", Body: "bye"}}, effects)

	// Saving without editing sends the empty buffer.
	_, effects = Reduce(seededState(models.Message{ID: "a", Message: "hi"}), Save{ID: "a"})
	assert.Equal(t, []Effect{{Kind: EffectUpdate, ID: "a", Body: ""}}, effects)
}

func TestReduceWritesRefetchOnlyOnSuccess(t *testing.T) {
	_, effects := Reduce(State{}, Delete{ID: "a"})
	assert.Equal(t, []Effect{{Kind: EffectDelete, ID: "a"}}, effects)

	_, effects = Reduce(State{}, WriteFinished{Op: "delete", ID: "a"})
	assert.Equal(t, []Effect{{Kind: EffectList}}, effects)

	_, effects = Reduce(State{}, WriteFinished{Op: "delete", ID: "a", Err: errors.New("404")})
	assert.Empty(t, effects)
}

func TestEffectKindString(t *testing.T) {
	assert.Equal(t, "list", EffectList.String())
	assert.Equal(t, "create", EffectCreate.String())
	assert.Equal(t, "update", EffectUpdate.String())
	assert.Equal(t, "delete", EffectDelete.String())
	assert.Equal(t, "unknown", EffectKind(0).String())
}
