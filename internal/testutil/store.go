package testutil

import (
	"testing"
	"time"

	"twitnot/internal/store"
	"twitnot/internal/twitnot"
)

// NewTestStore opens a migrated in-memory store. The store is closed
// when the test finishes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return NewTestStoreWithClock(t, NewStubClock(time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)))
}

func NewTestStoreWithClock(t *testing.T, clock twitnot.Clock) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(":memory:", clock)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("migrating test store: %v", err)
	}

	return s
}
