package note

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	apiError "team-workspace-server/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLineStore is a mock implementation of the LineStore interface
type MockLineStore struct {
	mock.Mock
}

func (m *MockLineStore) GetLineCount(ctx context.Context, noteID uint64) (int, error) {
	args := m.Called(ctx, noteID)
	return args.Int(0), args.Error(1)
}

func (m *MockLineStore) AppendLines(ctx context.Context, noteID uint64, count int) ([]NoteLine, error) {
	args := m.Called(ctx, noteID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]NoteLine), args.Error(1)
}

func (m *MockLineStore) WriteLine(ctx context.Context, noteID uint64, lineNumber int, patch LinePatch, editorID uint64) (*NoteLine, error) {
	args := m.Called(ctx, noteID, lineNumber, patch, editorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*NoteLine), args.Error(1)
}

func (m *MockLineStore) GetLine(ctx context.Context, noteID uint64, lineNumber int) (*NoteLine, error) {
	args := m.Called(ctx, noteID, lineNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*NoteLine), args.Error(1)
}

// recordingAuditor captures audit calls for assertions
type recordingAuditor struct {
	mu      sync.Mutex
	records []string
}

func (a *recordingAuditor) Record(opType, targetType string, targetID, userID uint64, companyCode string, detail any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, opType+":"+targetType)
}

func setupCoordinator(store LineStore) (*Coordinator, *Hub, *recordingAuditor) {
	hub := NewHub()
	audit := &recordingAuditor{}
	return NewCoordinator(store, NewLockTable(), hub, audit), hub, audit
}

func connectClient(co *Coordinator, userID uint64, username, company string) *Client {
	c := newClient(nil, Identity{UserID: userID, Username: username, TenantCode: company})
	co.Connect(c)
	return c
}

func nextEvent(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		return env
	default:
		t.Fatal("expected an event, got none")
		return envelope{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("expected no event, got %s", raw)
	default:
	}
}

func decodePayload[T any](t *testing.T, env envelope) T {
	t.Helper()
	var payload T
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	return payload
}

func TestConnect_SendsCurrentLocks(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	env := nextEvent(t, alice)
	assert.Equal(t, "currentLocks", env.Event)
	assert.Empty(t, decodePayload[[]LockRef](t, env))

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice) // lockAcquired

	// a late joiner sees alice's lock in the snapshot
	bob := connectClient(co, 2, "bob", "acme")
	env = nextEvent(t, bob)
	assert.Equal(t, "currentLocks", env.Event)
	locks := decodePayload[[]LockRef](t, env)
	if assert.Len(t, locks, 1) {
		assert.Equal(t, "alice", locks[0].Username)
		assert.Equal(t, uint64(7), locks[0].NoteID)
		assert.Equal(t, 3, locks[0].LineNumber)
	}
}

func TestAcquire_BroadcastsToTenantGroup(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	outsider := connectClient(co, 3, "carol", "globex")
	nextEvent(t, alice)
	nextEvent(t, bob)
	nextEvent(t, outsider)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})

	for _, c := range []*Client{alice, bob} {
		env := nextEvent(t, c)
		assert.Equal(t, "lockAcquired", env.Event)
		payload := decodePayload[LockRef](t, env)
		assert.Equal(t, "alice", payload.Username)
		assert.Equal(t, uint64(7), payload.NoteID)
		assert.Equal(t, 3, payload.LineNumber)
	}

	// broadcasts are scoped to the company group
	assertNoEvent(t, outsider)
}

func TestAcquire_OwnHeldLineIsIdempotent(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	assertNoEvent(t, alice)
}

func TestAcquire_NewLineReleasesPreviousFirst(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 10})

	// broadcast order: release of line 3, then acquire of line 10
	env := nextEvent(t, alice)
	assert.Equal(t, "lockReleased", env.Event)
	released := decodePayload[lockReleasedPayload](t, env)
	assert.Equal(t, uint64(1), released.UserID)
	assert.Equal(t, 3, released.LineNumber)

	env = nextEvent(t, alice)
	assert.Equal(t, "lockAcquired", env.Event)
	acquired := decodePayload[LockRef](t, env)
	assert.Equal(t, 10, acquired.LineNumber)

	assertNoEvent(t, alice)
}

func TestAcquire_NearEndExtendsPage(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)

	store.On("GetLineCount", mock.Anything, uint64(7)).Return(12, nil)
	newLines := blankLinesForTest(7, 13, 5)
	store.On("AppendLines", mock.Anything, uint64(7), 5).Return(newLines, nil).Once()

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	// 12 lines, locking line 9: 12-9 = 3 <= 5, extend by 5
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 9})

	env := nextEvent(t, alice)
	assert.Equal(t, "pageExtended", env.Event)
	payload := decodePayload[pageExtendedPayload](t, env)
	assert.Equal(t, uint64(7), payload.NoteID)
	if assert.Len(t, payload.NewLines, 5) {
		assert.Equal(t, 13, payload.NewLines[0].LineNumber)
		assert.Equal(t, 17, payload.NewLines[4].LineNumber)
	}

	env = nextEvent(t, alice)
	assert.Equal(t, "lockAcquired", env.Event)

	// cached count is now 17: locking line 9 again after moving away
	// stays below the threshold and extends nothing
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 2})
	nextEvent(t, alice) // lockReleased for line 9
	nextEvent(t, alice) // lockAcquired for line 2
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 9})
	env = nextEvent(t, alice)
	assert.Equal(t, "lockReleased", env.Event)
	env = nextEvent(t, alice)
	assert.Equal(t, "lockAcquired", env.Event)

	store.AssertNumberOfCalls(t, "AppendLines", 1)
}

func TestAcquire_FarFromEndDoesNotExtend(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(12, nil)

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	// 12 lines, locking line 6: 12-6 = 6 > 5, no extension
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 6})

	env := nextEvent(t, alice)
	assert.Equal(t, "lockAcquired", env.Event)
	store.AssertNotCalled(t, "AppendLines", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcquire_UnknownNoteIsRejected(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(99)).
		Return(0, apiError.NotFound("Note not found", nil))

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 99, LineNumber: 1})

	// the caller alone gets the error, no lines are allocated, no lock is held
	env := nextEvent(t, alice)
	assert.Equal(t, "error", env.Event)
	payload := decodePayload[errorPayload](t, env)
	assert.Equal(t, uint64(99), payload.NoteID)

	assertNoEvent(t, bob)
	store.AssertNotCalled(t, "AppendLines", mock.Anything, mock.Anything, mock.Anything)
	_, held := co.locks.CurrentHolder(99, 1)
	assert.False(t, held)
}

func TestAcquire_ExtensionFailureAbortsAcquire(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(12, nil)
	store.On("AppendLines", mock.Anything, uint64(7), 5).Return(nil, errors.New("db down"))

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 10})

	assertNoEvent(t, alice)
	_, held := co.locks.CurrentHolder(7, 10)
	assert.False(t, held)
}

func TestRelease_BroadcastsAndFreesLine(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)

	co.Release(alice, LockRequest{NoteID: 7, LineNumber: 3})
	env := nextEvent(t, alice)
	assert.Equal(t, "lockReleased", env.Event)
	payload := decodePayload[lockReleasedPayload](t, env)
	assert.Equal(t, uint64(1), payload.UserID)

	// releasing a line the caller does not hold is silently ignored
	co.Release(alice, LockRequest{NoteID: 7, LineNumber: 3})
	assertNoEvent(t, alice)
}

func TestUpdate_WithoutLockIsRejected(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)
	nextEvent(t, bob)

	content := "x"
	co.Update(context.Background(), bob, AlterLineRequest{NoteID: 7, LineNumber: 3, Content: &content})

	// bob alone gets the error, nothing is broadcast, nothing is written
	env := nextEvent(t, bob)
	assert.Equal(t, "error", env.Event)
	payload := decodePayload[errorPayload](t, env)
	assert.Equal(t, uint64(7), payload.NoteID)
	assert.Equal(t, 3, payload.LineNumber)
	assert.NotEmpty(t, payload.Message)

	assertNoEvent(t, alice)
	store.AssertNotCalled(t, "WriteLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_UnlockedLineIsRejectedLikeForeignLock(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)

	content := "x"
	co.Update(context.Background(), alice, AlterLineRequest{NoteID: 7, LineNumber: 3, Content: &content})

	env := nextEvent(t, alice)
	assert.Equal(t, "error", env.Event)
	store.AssertNotCalled(t, "WriteLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_HolderWritesThroughAndBroadcasts(t *testing.T) {
	store := new(MockLineStore)
	co, _, audit := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	content := "hello"
	updated := &NoteLine{ID: 42, NoteID: 7, LineNumber: 3, Content: &content}
	store.On("WriteLine", mock.Anything, uint64(7), 3, mock.MatchedBy(func(p LinePatch) bool {
		return p.Content != nil && *p.Content == "hello"
	}), uint64(1)).Return(updated, nil)

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Update(context.Background(), alice, AlterLineRequest{NoteID: 7, LineNumber: 3, Content: &content})

	for _, c := range []*Client{alice, bob} {
		env := nextEvent(t, c)
		assert.Equal(t, "lineUpdated", env.Event)
		line := decodePayload[NoteLine](t, env)
		assert.Equal(t, uint64(42), line.ID)
		if assert.NotNil(t, line.Content) {
			assert.Equal(t, "hello", *line.Content)
		}
	}

	assert.Equal(t, []string{"UPDATE:NOTE_LINE"}, audit.records)
}

func TestUpdate_PersistenceFailureIsSwallowed(t *testing.T) {
	store := new(MockLineStore)
	co, _, audit := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)
	store.On("WriteLine", mock.Anything, uint64(7), 3, mock.Anything, uint64(1)).
		Return(nil, errors.New("db down"))

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)

	content := "hello"
	co.Update(context.Background(), alice, AlterLineRequest{NoteID: 7, LineNumber: 3, Content: &content})

	// no broadcast, no error echo, no audit record
	assertNoEvent(t, alice)
	assert.Empty(t, audit.records)
}

func TestUpdate_MissingLineSurfacesErrorEvent(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)
	store.On("WriteLine", mock.Anything, uint64(7), 3, mock.Anything, uint64(1)).
		Return(nil, apiError.NotFound("Note line not found", nil))

	alice := connectClient(co, 1, "alice", "acme")
	nextEvent(t, alice)
	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)

	content := "hello"
	co.Update(context.Background(), alice, AlterLineRequest{NoteID: 7, LineNumber: 3, Content: &content})

	env := nextEvent(t, alice)
	assert.Equal(t, "error", env.Event)
}

func TestDisconnect_ReleasesHeldLock(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)
	store.On("GetLineCount", mock.Anything, uint64(7)).Return(100, nil)

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Acquire(context.Background(), alice, LockRequest{NoteID: 7, LineNumber: 3})
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Disconnect(alice)

	env := nextEvent(t, bob)
	assert.Equal(t, "lockReleased", env.Event)
	payload := decodePayload[lockReleasedPayload](t, env)
	assert.Equal(t, uint64(1), payload.UserID)
	assert.Equal(t, uint64(7), payload.NoteID)
	assert.Equal(t, 3, payload.LineNumber)

	_, held := co.locks.CurrentHolder(7, 3)
	assert.False(t, held)

	// deregister is idempotent
	co.Disconnect(alice)
	assertNoEvent(t, bob)
}

func TestDisconnect_WithoutLockBroadcastsNothing(t *testing.T) {
	store := new(MockLineStore)
	co, _, _ := setupCoordinator(store)

	alice := connectClient(co, 1, "alice", "acme")
	bob := connectClient(co, 2, "bob", "acme")
	nextEvent(t, alice)
	nextEvent(t, bob)

	co.Disconnect(alice)
	assertNoEvent(t, bob)
}

func blankLinesForTest(noteID uint64, from, count int) []NoteLine {
	lines := make([]NoteLine, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, NoteLine{NoteID: noteID, LineNumber: from + i})
	}
	return lines
}
