package ui

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdesk/backendtest"
	"chatdesk/models"
	"chatdesk/network"
)

type journalCall struct {
	kind      string
	op        string
	requestID string
	messageID string
	failed    bool
}

type fakeJournal struct {
	mu    sync.Mutex
	calls []journalCall
}

func (j *fakeJournal) BeginWrite(op, requestID, messageID string) error {
	j.record(journalCall{kind: "begin", op: op, requestID: requestID, messageID: messageID})
	return nil
}

func (j *fakeJournal) FinishWrite(requestID, messageID string, failure error) error {
	j.record(journalCall{kind: "finish", requestID: requestID, messageID: messageID, failed: failure != nil})
	return nil
}

func (j *fakeJournal) RecordFailure(op, messageID string, failure error) error {
	j.record(journalCall{kind: "failure", op: op, messageID: messageID, failed: true})
	return nil
}

func (j *fakeJournal) record(call journalCall) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *fakeJournal) Calls() []journalCall {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalCall(nil), j.calls...)
}

func newTestController(t *testing.T, backend *backendtest.Server, journal Journal) *Controller {
	t.Helper()
	client, err := network.NewClient(network.Options{BaseURL: backend.URL()})
	require.NoError(t, err)
	return NewController(NewRunner(client, journal, nil))
}

func bodies(state State) []string {
	out := make([]string, 0, len(state.Messages))
	for _, entry := range state.Messages {
		out = append(out, entry.Message.Message)
	}
	return out
}

func TestControllerMountLoadsBackendOrder(t *testing.T) {
	backend := backendtest.New(t,
		models.Message{ID: "b", Message: "second"},
		models.Message{ID: "a", Message: "first"},
	)
	ctrl := newTestController(t, backend, nil)

	state, err := ctrl.Dispatch(context.Background(), Mount{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, bodies(state))
}

func TestControllerSendThenList(t *testing.T) {
	backend := backendtest.New(t, models.Message{ID: "a", Message: "old"})
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, Mount{})
	require.NoError(t, err)
	_, err = ctrl.Dispatch(ctx, ComposeChanged{Text: "hi"})
	require.NoError(t, err)

	state, err := ctrl.Dispatch(ctx, Send{})
	require.NoError(t, err)
	assert.False(t, state.Sending)
	assert.Empty(t, state.ComposeText)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "hi", state.Messages[1].Message.Message)
	assert.NotEmpty(t, state.Messages[1].ID)
	assert.NotEqual(t, "a", state.Messages[1].ID)
}

func TestControllerSendIntoEmptyCollection(t *testing.T) {
	backend := backendtest.New(t)
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, ComposeChanged{Text: "hi"})
	require.NoError(t, err)
	state, err := ctrl.Dispatch(ctx, Send{})
	require.NoError(t, err)

	require.Len(t, state.Messages, 1)
	assert.Equal(t, "hi", state.Messages[0].Message.Message)
	assert.Len(t, state.Messages[0].ID, 36)
	assert.False(t, state.Sending)
}

func TestControllerEditAndSave(t *testing.T) {
	backend := backendtest.New(t, models.Message{ID: "a", Message: "hi"})
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, Mount{})
	require.NoError(t, err)
	_, err = ctrl.Dispatch(ctx, ToggleEdit{ID: "a"})
	require.NoError(t, err)
	_, err = ctrl.Dispatch(ctx, EditChanged{ID: "a", Value: "bye"})
	require.NoError(t, err)

	state, err := ctrl.Dispatch(ctx, Save{ID: "a"})
	require.NoError(t, err)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "a", state.Messages[0].ID)
	assert.Equal(t, "bye", state.Messages[0].Message.Message)
	assert.False(t, state.Messages[0].Editing)
}

func TestControllerDelete(t *testing.T) {
	backend := backendtest.New(t,
		models.Message{ID: "a", Message: "one"},
		models.Message{ID: "b", Message: "two"},
	)
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, Mount{})
	require.NoError(t, err)
	state, err := ctrl.Dispatch(ctx, Delete{ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, bodies(state))
}

func TestControllerDeleteUnknownIDKeepsState(t *testing.T) {
	backend := backendtest.New(t, models.Message{ID: "a", Message: "one"})
	journal := &fakeJournal{}
	ctrl := newTestController(t, backend, journal)
	ctx := context.Background()

	before, err := ctrl.Dispatch(ctx, Mount{})
	require.NoError(t, err)

	after, err := ctrl.Dispatch(ctx, Delete{ID: "missing"})
	require.Error(t, err)
	assert.True(t, network.IsFetchError(err))
	assert.Equal(t, http.StatusNotFound, network.StatusCode(err))
	assert.Equal(t, before, after)

	calls := journal.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "begin", calls[0].kind)
	assert.Equal(t, "finish", calls[1].kind)
	assert.True(t, calls[1].failed)
	assert.Equal(t, journalCall{kind: "failure", op: network.OpDelete, messageID: "missing", failed: true}, calls[2])
}

func TestControllerFailedSendKeepsComposeText(t *testing.T) {
	backend := backendtest.New(t)
	backend.FailNext(http.MethodPost, http.StatusInternalServerError)
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, ComposeChanged{Text: "retry me"})
	require.NoError(t, err)
	state, err := ctrl.Dispatch(ctx, Send{})
	require.Error(t, err)
	assert.False(t, state.Sending)
	assert.Equal(t, "retry me", state.ComposeText)
	assert.Empty(t, backend.Messages())
}

func TestControllerFailedListKeepsMessages(t *testing.T) {
	backend := backendtest.New(t, models.Message{ID: "a", Message: "one"})
	ctrl := newTestController(t, backend, nil)
	ctx := context.Background()

	before, err := ctrl.Dispatch(ctx, Mount{})
	require.NoError(t, err)

	backend.FailNext(http.MethodGet, http.StatusBadGateway)
	after, err := ctrl.Dispatch(ctx, Reload{})
	require.Error(t, err)
	assert.Equal(t, before, after)
}

func TestControllerJournalsRequestIDSentToBackend(t *testing.T) {
	backend := backendtest.New(t)
	journal := &fakeJournal{}
	ctrl := newTestController(t, backend, journal)
	ctx := context.Background()

	_, err := ctrl.Dispatch(ctx, ComposeChanged{Text: "hi"})
	require.NoError(t, err)
	state, err := ctrl.Dispatch(ctx, Send{})
	require.NoError(t, err)
	require.Len(t, state.Messages, 1)

	calls := journal.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "begin", calls[0].kind)
	assert.Equal(t, network.OpCreate, calls[0].op)
	assert.Equal(t, "finish", calls[1].kind)
	assert.Equal(t, calls[0].requestID, calls[1].requestID)
	assert.Equal(t, state.Messages[0].ID, calls[1].messageID)

	var posted []backendtest.Request
	for _, req := range backend.Requests() {
		if req.Method == http.MethodPost {
			posted = append(posted, req)
		}
	}
	require.Len(t, posted, 1)
	assert.Equal(t, calls[0].requestID, posted[0].RequestID)
}
