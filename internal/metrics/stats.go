package metrics

// ReconcileStats counts what the stalled payment sweep did.
type ReconcileStats struct {
	Processed Counter
	Completed Counter
	Voided    Counter
	Pending   Counter
	Unknown   Counter
	Failed    Counter
	Skipped   Counter
	Sweeps    Counter
}

type ReconcileSnapshot struct {
	Processed uint64 `json:"processed"`
	Completed uint64 `json:"completed"`
	Voided    uint64 `json:"voided"`
	Pending   uint64 `json:"pending"`
	Unknown   uint64 `json:"unknown"`
	Failed    uint64 `json:"failed"`
	Skipped   uint64 `json:"skipped"`
	Sweeps    uint64 `json:"sweeps"`
}

func (s *ReconcileStats) Snapshot() ReconcileSnapshot {
	return ReconcileSnapshot{
		Processed: s.Processed.Load(),
		Completed: s.Completed.Load(),
		Voided:    s.Voided.Load(),
		Pending:   s.Pending.Load(),
		Unknown:   s.Unknown.Load(),
		Failed:    s.Failed.Load(),
		Skipped:   s.Skipped.Load(),
		Sweeps:    s.Sweeps.Load(),
	}
}
