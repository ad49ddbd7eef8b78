package note

import (
	"context"
	defError "errors"
	"net/http"
	"sync"

	"team-workspace-server/internal/errors"

	"github.com/rs/zerolog/log"
)

// Line extension policy: a user locking within extendThreshold lines of the
// end gets extendBatch fresh lines appended, so editing near the tail never
// hits a hard boundary.
const (
	extendThreshold = 5
	extendBatch     = 5
)

// Auditor is the outbound audit port. Implementations must not block; the
// protocol engine fires and forgets.
type Auditor interface {
	Record(opType, targetType string, targetID, userID uint64, companyCode string, detail any)
}

// Coordinator is the soft-lock protocol engine. All lock transitions and
// broadcasts are serialized through its mutex so a holder check can never
// interleave with a concurrent acquire or release for the same line.
type Coordinator struct {
	store LineStore
	locks *LockTable
	hub   *Hub
	audit Auditor

	mu     sync.Mutex
	counts map[uint64]int // cached line count per note
}

func NewCoordinator(store LineStore, locks *LockTable, hub *Hub, audit Auditor) *Coordinator {
	return &Coordinator{
		store:  store,
		locks:  locks,
		hub:    hub,
		audit:  audit,
		counts: make(map[uint64]int),
	}
}

// Connect registers the client into its company group and sends it the full
// current lock state so its UI can restore held lines.
func (co *Coordinator) Connect(c *Client) {
	co.hub.Register(c)

	co.mu.Lock()
	snapshot := co.locks.Snapshot()
	co.mu.Unlock()

	c.sendEvent(eventCurrentLocks, snapshot)
	log.Info().
		Str("user", c.identity.Username).
		Str("company", c.identity.TenantCode).
		Msg("note session connected")
}

// Disconnect removes the client and releases whatever it held. Unconditional;
// the lock table operations cannot fail.
func (co *Coordinator) Disconnect(c *Client) {
	identity := co.hub.Deregister(c)
	if identity == nil {
		return
	}

	co.mu.Lock()
	defer co.mu.Unlock()

	for _, ref := range co.locks.ReleaseAllForUser(identity.Username) {
		co.hub.Broadcast(identity.TenantCode, eventLockReleased, lockReleasedPayload{
			UserID:     identity.UserID,
			NoteID:     ref.NoteID,
			LineNumber: ref.LineNumber,
		})
	}
	c.state = sessionState{}

	log.Info().
		Str("user", identity.Username).
		Str("company", identity.TenantCode).
		Msg("note session disconnected")
}

// Acquire claims a line for the caller. Re-requesting the line the caller
// already holds is a no-op. Claiming a line someone else holds succeeds and
// silently reassigns it; the conflict surfaces when the loser tries to write.
func (co *Coordinator) Acquire(ctx context.Context, c *Client, req LockRequest) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if c.state.locked && c.state.noteID == req.NoteID && c.state.lineNumber == req.LineNumber {
		return
	}

	if !co.extendIfNearEnd(ctx, c, req.NoteID, req.LineNumber) {
		return
	}

	released, changed := co.locks.Acquire(req.NoteID, req.LineNumber, c.identity.Username)
	if !changed {
		c.state = sessionState{locked: true, noteID: req.NoteID, lineNumber: req.LineNumber}
		return
	}

	if released != nil {
		co.hub.Broadcast(c.identity.TenantCode, eventLockReleased, lockReleasedPayload{
			UserID:     c.identity.UserID,
			NoteID:     released.NoteID,
			LineNumber: released.LineNumber,
		})
	}

	co.hub.Broadcast(c.identity.TenantCode, eventLockAcquired, LockRef{
		NoteID:     req.NoteID,
		LineNumber: req.LineNumber,
		Username:   c.identity.Username,
	})
	c.state = sessionState{locked: true, noteID: req.NoteID, lineNumber: req.LineNumber}
}

// extendIfNearEnd appends a fresh batch of lines when the requested line is
// within the trailing threshold of the cached count. Reports whether the
// acquire may proceed; a failed extension aborts it.
func (co *Coordinator) extendIfNearEnd(ctx context.Context, c *Client, noteID uint64, lineNumber int) bool {
	count, ok := co.counts[noteID]
	if !ok {
		var err error
		count, err = co.store.GetLineCount(ctx, noteID)
		if err != nil {
			co.surfaceMissingNote(c, noteID, lineNumber, err)
			log.Error().Err(err).Uint64("note", noteID).Msg("line count lookup failed")
			return false
		}
		co.counts[noteID] = count
	}

	if lineNumber < count-extendThreshold {
		return true
	}

	newLines, err := co.store.AppendLines(ctx, noteID, extendBatch)
	if err != nil {
		co.surfaceMissingNote(c, noteID, lineNumber, err)
		log.Error().Err(err).Uint64("note", noteID).Msg("line extension failed")
		return false
	}
	co.counts[noteID] = count + extendBatch

	co.hub.Broadcast(c.identity.TenantCode, eventPageExtended, pageExtendedPayload{
		NoteID:   noteID,
		NewLines: newLines,
	})

	log.Debug().
		Uint64("note", noteID).
		Int("count", co.counts[noteID]).
		Msg("note extended")
	return true
}

// surfaceMissingNote echoes an error event when the store reports the note
// does not exist. Other store failures stay silent, the client times out.
func (co *Coordinator) surfaceMissingNote(c *Client, noteID uint64, lineNumber int, err error) {
	var appErr *errors.AppError
	if !defError.As(err, &appErr) || appErr.Code != http.StatusNotFound {
		return
	}
	c.sendEvent(eventError, errorPayload{
		Message:    "Note not found.",
		NoteID:     noteID,
		LineNumber: lineNumber,
	})
}

// Release drops the caller's lock on a line. A release for a line the caller
// does not hold is silently ignored.
func (co *Coordinator) Release(c *Client, req LockRequest) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if !co.locks.Release(req.NoteID, req.LineNumber, c.identity.Username) {
		return
	}

	c.state = sessionState{}
	co.hub.Broadcast(c.identity.TenantCode, eventLockReleased, lockReleasedPayload{
		UserID:     c.identity.UserID,
		NoteID:     req.NoteID,
		LineNumber: req.LineNumber,
	})
}

// Update writes through to the line store after verifying lock ownership.
// This is the actual enforcement point of the soft-lock protocol.
func (co *Coordinator) Update(ctx context.Context, c *Client, req AlterLineRequest) {
	co.mu.Lock()
	defer co.mu.Unlock()

	holder, held := co.locks.CurrentHolder(req.NoteID, req.LineNumber)
	if !held || holder != c.identity.Username {
		c.sendEvent(eventError, errorPayload{
			Message:    "You must hold the lock on this line to alter it.",
			NoteID:     req.NoteID,
			LineNumber: req.LineNumber,
		})
		return
	}

	patch := LinePatch{
		Content:     req.Content,
		Color:       req.Color,
		FontSize:    req.FontSize,
		Highlighted: req.Highlighted,
	}

	line, err := co.store.WriteLine(ctx, req.NoteID, req.LineNumber, patch, c.identity.UserID)
	if err != nil {
		var appErr *errors.AppError
		if defError.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			// a held lock on a missing line points at a data-integrity bug
			log.Error().Err(err).
				Uint64("note", req.NoteID).
				Int("line", req.LineNumber).
				Msg("locked line does not exist")
			c.sendEvent(eventError, errorPayload{
				Message:    "Line not found.",
				NoteID:     req.NoteID,
				LineNumber: req.LineNumber,
			})
			return
		}

		// store unavailable: abort with no broadcast, the client times out
		log.Error().Err(err).
			Uint64("note", req.NoteID).
			Int("line", req.LineNumber).
			Msg("line update failed")
		return
	}

	co.hub.Broadcast(c.identity.TenantCode, eventLineUpdated, line)

	if co.audit != nil {
		co.audit.Record("UPDATE", "NOTE_LINE", line.ID, c.identity.UserID, c.identity.TenantCode, line)
	}
}
