package note

// Inbound event names.
const (
	eventAcquireLock = "acquireLock"
	eventReleaseLock = "releaseLock"
	eventAlterLine   = "alterLine"
)

// Outbound event names.
const (
	eventCurrentLocks = "currentLocks"
	eventLockAcquired = "lockAcquired"
	eventLockReleased = "lockReleased"
	eventLineUpdated  = "lineUpdated"
	eventPageExtended = "pageExtended"
	eventError        = "error"
)

// LockRequest is the payload of acquireLock and releaseLock.
type LockRequest struct {
	NoteID     uint64 `json:"documentId"`
	LineNumber int    `json:"lineNumber"`
}

// AlterLineRequest is the payload of alterLine. Only non-nil fields are
// applied to the line.
type AlterLineRequest struct {
	NoteID      uint64  `json:"documentId"`
	LineNumber  int     `json:"lineNumber"`
	Content     *string `json:"content"`
	Color       *string `json:"color"`
	FontSize    *int    `json:"fontSize"`
	Highlighted *bool   `json:"highlighted"`
}

// lockReleasedPayload is broadcast whenever a lock is dropped, whether
// explicitly, implicitly by a new acquire, or on disconnect.
type lockReleasedPayload struct {
	UserID     uint64 `json:"userId"`
	NoteID     uint64 `json:"documentId"`
	LineNumber int    `json:"lineNumber"`
}

// pageExtendedPayload is broadcast when a note grows near its tail.
type pageExtendedPayload struct {
	NoteID   uint64     `json:"documentId"`
	NewLines []NoteLine `json:"newLines"`
}

// errorPayload goes to the originating caller only, never broadcast.
type errorPayload struct {
	Message    string `json:"message"`
	NoteID     uint64 `json:"documentId"`
	LineNumber int    `json:"lineNumber"`
}
