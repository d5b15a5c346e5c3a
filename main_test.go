package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"werewolf-gm/internal/engine"
)

// ============================================================================
// Test Helpers
// ============================================================================

// TestContext holds the per-test store and logger
type TestContext struct {
	t      *testing.T
	logger *TestLogger
	out    bytes.Buffer
}

// newTestContext connects a fresh in-memory database and installs the test logger
func newTestContext(t *testing.T) *TestContext {
	logger := NewTestLogger(t)

	var err error
	// Use shared cache mode so all connections see the same in-memory database
	db, err = sqlx.Connect("sqlite3", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := initDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	logger.LogDB("after initDB")

	prevLogger, prevStoryteller := appLogger, globalStoryteller
	appLogger = logger.AppLogger
	globalStoryteller = nil

	t.Cleanup(func() {
		appLogger, globalStoryteller = prevLogger, prevStoryteller
		logger.Close()
		db.Close() // last connection gone: the in-memory database is dropped
	})
	return &TestContext{t: t, logger: logger}
}

// run plays the script with roles dealt in the order they are listed.
func (tc *TestContext) run(script GameScript) *Transcript {
	tc.t.Helper()
	tr, err := runScript(context.Background(), AppConfig{}, script, &tc.out, engine.WithPicker(identityPicker()))
	if err != nil {
		tc.t.Fatalf("runScript: %v", err)
	}
	tc.logger.LogDB("after runScript")
	tc.logger.Debug("output:\n%s", tc.out.String())
	return tr
}

// identityPicker makes the role shuffle a no-op and always picks the last
// candidate on ties.
func identityPicker() engine.Picker {
	return engine.PickerFunc(func(n int) int { return n - 1 })
}

func countActions(t *testing.T, gameID, actionType string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM game_action WHERE game_id = ? AND action_type = ?`, gameID, actionType); err != nil {
		t.Fatalf("count %s: %v", actionType, err)
	}
	return n
}

// mockStoryteller is a test double for the Storyteller interface.
// It returns a fixed story text without calling any LLM.
type mockStoryteller struct {
	text  string
	err   error
	calls int
	seen  [][]string
}

func (m *mockStoryteller) Tell(_ context.Context, history []string, onChunk func(string)) (string, error) {
	m.calls++
	m.seen = append(m.seen, history)
	if m.err != nil {
		return "", m.err
	}
	if onChunk != nil {
		onChunk(m.text)
	}
	return m.text, nil
}

var errStorytellerDown = errors.New("storyteller unavailable")
