package history

import (
	"context"
	"encoding/json"
	"time"

	"team-workspace-server/internal/worker"

	"github.com/rs/zerolog/log"
)

// AsyncRecorder persists audit records through the worker pool so a slow or
// failing audit write can never block or corrupt the edit protocol.
type AsyncRecorder struct {
	repository OperationRepository
	pool       *worker.WorkerPool
}

func NewAsyncRecorder(repository OperationRepository, pool *worker.WorkerPool) *AsyncRecorder {
	return &AsyncRecorder{repository: repository, pool: pool}
}

// Record enqueues one audit record. Fire-and-forget: failures are logged by
// the pool, never surfaced to the caller.
func (r *AsyncRecorder) Record(opType, targetType string, targetID, userID uint64, companyCode string, detail any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		log.Warn().Err(err).Str("type", opType).Msg("audit detail marshal failed")
		raw = []byte("{}")
	}

	op := &Operation{
		Type:        opType,
		TargetType:  targetType,
		TargetID:    targetID,
		UserID:      userID,
		CompanyCode: companyCode,
		Detail:      string(raw),
		CreatedAt:   time.Now().UTC(),
	}

	r.pool.Submit(func(ctx context.Context) error {
		return r.repository.Create(ctx, op)
	})
}
