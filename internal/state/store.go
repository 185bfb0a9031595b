// Package state persists run history: one record per detection run with its
// outcome and headline numbers. Detection itself never reads this store; it
// exists for operator audit via the runs command.
package state

// RunStatus is the lifecycle state of a detection run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded detection run.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   string
	CompletedAt *string

	SpendingPath string
	OutputPath   string

	ProvidersScanned int64
	ProvidersFlagged int64
	// OverpaymentUSD is the summed estimated overpayment across all
	// flagged providers.
	OverpaymentUSD float64
	// SignalCounts is the per-signal count map serialized as JSON.
	SignalCounts string

	Error *string
}

// RunOutcome carries the completion data for a run.
type RunOutcome struct {
	ProvidersScanned int64
	ProvidersFlagged int64
	OverpaymentUSD   float64
	SignalCounts     string
}
