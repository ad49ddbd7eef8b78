package note

import (
	"sync"
)

// LockRef identifies one held line lock.
type LockRef struct {
	NoteID     uint64 `json:"documentId"`
	LineNumber int    `json:"lineNumber"`
	Username   string `json:"username"`
}

type lockKey struct {
	noteID     uint64
	lineNumber int
}

// LockTable tracks which line of which note each user holds. A user holds at
// most one lock system-wide, a line has at most one recorded holder, and
// acquiring a contested line silently displaces the current holder; ownership
// is enforced at write time, not here.
type LockTable struct {
	mu     sync.Mutex
	holder map[lockKey]string // (note, line) -> username
	byUser map[string]lockKey // username -> held (note, line)
}

func NewLockTable() *LockTable {
	return &LockTable{
		holder: make(map[lockKey]string),
		byUser: make(map[string]lockKey),
	}
}

// Acquire records username as holder of (noteID, lineNumber). If the user
// already holds a different lock it is dropped first and returned so the
// caller can broadcast its release. Re-acquiring the identical lock is a
// no-op and changed reports false.
func (t *LockTable) Acquire(noteID uint64, lineNumber int, username string) (released *LockRef, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := lockKey{noteID: noteID, lineNumber: lineNumber}

	if prev, ok := t.byUser[username]; ok {
		if prev == key {
			return nil, false
		}
		delete(t.holder, prev)
		released = &LockRef{NoteID: prev.noteID, LineNumber: prev.lineNumber, Username: username}
	}

	// last acquire wins: a displaced holder keeps editing at its own risk
	// until its next update is rejected
	if displaced, ok := t.holder[key]; ok && displaced != username {
		delete(t.byUser, displaced)
	}

	t.holder[key] = username
	t.byUser[username] = key
	return released, true
}

// Release removes the entry only when username is the recorded holder.
func (t *LockTable) Release(noteID uint64, lineNumber int, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := lockKey{noteID: noteID, lineNumber: lineNumber}
	if t.holder[key] != username {
		return false
	}

	delete(t.holder, key)
	delete(t.byUser, username)
	return true
}

// ReleaseAllForUser drops every lock held by username and returns them for
// broadcast. By the single-lock invariant there is at most one.
func (t *LockTable) ReleaseAllForUser(username string) []LockRef {
	t.mu.Lock()
	defer t.mu.Unlock()

	key, ok := t.byUser[username]
	if !ok {
		return nil
	}

	delete(t.holder, key)
	delete(t.byUser, username)
	return []LockRef{{NoteID: key.noteID, LineNumber: key.lineNumber, Username: username}}
}

// CurrentHolder returns the recorded holder of a line, if any.
func (t *LockTable) CurrentHolder(noteID uint64, lineNumber int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	username, ok := t.holder[lockKey{noteID: noteID, lineNumber: lineNumber}]
	return username, ok
}

// Snapshot returns every held lock, used to populate a newly connected client.
func (t *LockTable) Snapshot() []LockRef {
	t.mu.Lock()
	defer t.mu.Unlock()

	refs := make([]LockRef, 0, len(t.holder))
	for key, username := range t.holder {
		refs = append(refs, LockRef{
			NoteID:     key.noteID,
			LineNumber: key.lineNumber,
			Username:   username,
		})
	}
	return refs
}
