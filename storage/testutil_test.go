package storage

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dataDir := t.TempDir()
	store, _, err := Open(dataDir)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})

	return store
}

func mustBeginWrite(t *testing.T, store *Store, op, requestID, messageID string) {
	t.Helper()

	if err := store.BeginWrite(op, requestID, messageID); err != nil {
		t.Fatalf("begin write %q: %v", requestID, err)
	}
}
