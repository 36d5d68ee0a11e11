package ui

import (
	"chatdesk/models"
)

// Entry is a message row plus edit state that exists only on this client.
// Editing and UpdatedMessage are never sent and are dropped on every reload.
type Entry struct {
	models.Message
	Editing        bool
	UpdatedMessage string
}

// State is the whole UI-facing state. Reduce never mutates a State in place.
type State struct {
	Messages    []Entry
	ComposeText string
	Sending     bool
}

// Find returns the entry with id and whether it exists.
func (s State) Find(id string) (Entry, bool) {
	for _, entry := range s.Messages {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// Action is a user intent or a completed backend call fed into Reduce.
type Action interface {
	action()
}

type (
	// Mount requests the initial list.
	Mount struct{}
	// Reload re-fetches the list on demand.
	Reload struct{}
	// ComposeChanged replaces the compose text.
	ComposeChanged struct{ Text string }
	// Send submits ComposeText as a new message.
	Send struct{}
	// ToggleEdit flips edit mode on one row.
	ToggleEdit struct{ ID string }
	// EditChanged replaces the edit buffer of one row.
	EditChanged struct {
		ID    string
		Value string
	}
	// Save submits the edit buffer of one row.
	Save struct{ ID string }
	// Delete removes one row on the backend.
	Delete struct{ ID string }

	// ListLoaded carries a successful list response.
	ListLoaded struct{ Messages []models.Message }
	// ListFailed reports a failed list call.
	ListFailed struct{ Err error }
	// SendFinished reports the outcome of a create call.
	SendFinished struct {
		ID  string
		Err error
	}
	// WriteFinished reports the outcome of an update or delete call.
	WriteFinished struct {
		Op  string
		ID  string
		Err error
	}
)

func (Mount) action()          {}
func (Reload) action()         {}
func (ComposeChanged) action() {}
func (Send) action()           {}
func (ToggleEdit) action()     {}
func (EditChanged) action()    {}
func (Save) action()           {}
func (Delete) action()         {}
func (ListLoaded) action()     {}
func (ListFailed) action()     {}
func (SendFinished) action()   {}
func (WriteFinished) action()  {}

// EffectKind names the backend call an Effect asks for.
type EffectKind int

const (
	EffectList EffectKind = iota + 1
	EffectCreate
	EffectUpdate
	EffectDelete
)

func (k EffectKind) String() string {
	switch k {
	case EffectList:
		return "list"
	case EffectCreate:
		return "create"
	case EffectUpdate:
		return "update"
	case EffectDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Effect is a backend call requested by Reduce and executed by a Runner.
type Effect struct {
	Kind EffectKind
	ID   string
	Body string
}

// Reduce applies action to state and returns the next state plus the backend
// calls to perform. Every successful write is followed by a full list.
func Reduce(state State, action Action) (State, []Effect) {
	switch a := action.(type) {
	case Mount, Reload:
		return state, []Effect{{Kind: EffectList}}

	case ComposeChanged:
		state.ComposeText = a.Text
		return state, nil

	case Send:
		state.Sending = true
		return state, []Effect{{Kind: EffectCreate, Body: state.ComposeText}}

	case SendFinished:
		state.Sending = false
		if a.Err != nil {
			return state, nil
		}
		state.ComposeText = ""
		return state, []Effect{{Kind: EffectList}}

	case ToggleEdit:
		state.Messages = updateEntry(state.Messages, a.ID, func(entry *Entry) {
			entry.Editing = !entry.Editing
		})
		return state, nil

	case EditChanged:
		state.Messages = updateEntry(state.Messages, a.ID, func(entry *Entry) {
			entry.UpdatedMessage = a.Value
		})
		return state, nil

	case Save:
		entry, _ := state.Find(a.ID)
		return state, []Effect{{Kind: EffectUpdate, ID: a.ID, Body: entry.UpdatedMessage}}

	case Delete:
		return state, []Effect{{Kind: EffectDelete, ID: a.ID}}

	case WriteFinished:
		if a.Err != nil {
			return state, nil
		}
		return state, []Effect{{Kind: EffectList}}

	case ListLoaded:
		entries := make([]Entry, 0, len(a.Messages))
		for _, msg := range a.Messages {
			entries = append(entries, Entry{Message: msg})
		}
		state.Messages = entries
		return state, nil

	case ListFailed:
		return state, nil
	}

	return state, nil
}

func updateEntry(entries []Entry, id string, fn func(*Entry)) []Entry {
	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return entries
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	fn(&out[idx])
	return out
}

func actionErr(action Action) error {
	switch a := action.(type) {
	case ListFailed:
		return a.Err
	case SendFinished:
		return a.Err
	case WriteFinished:
		return a.Err
	}
	return nil
}
