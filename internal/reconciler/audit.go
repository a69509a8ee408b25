package reconciler

import (
	"context"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	"go.uber.org/zap"
)

// Recorder writes audit rows for non-settlement outcomes. Settlements write
// their own row inside the settlement transaction; everything else goes
// through here. A failed audit write is logged and swallowed so the engine
// keeps processing the rest of the feed.
type Recorder struct {
	store store.Store
}

func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

func (r *Recorder) Record(ctx context.Context, entry models.AutoTopupLog) {
	if err := r.store.RecordTopupLog(ctx, entry); err != nil {
		zap.L().Error("Failed to record audit entry",
			zap.String("bank", entry.BankName),
			zap.String("reference", entry.BankReference),
			zap.String("outcome", string(entry.Outcome)),
			zap.Error(err))
	}
}
