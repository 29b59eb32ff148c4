package synth

import (
	"encoding/json"
	"time"

	"github.com/projecteru2/docup/types"
)

// Snapshot is the complete observable progress state at one point in time.
type Snapshot struct {
	TransferID  string
	Phase       Phase
	Percentage  int
	StatusLabel string
	Message     string
	// EstimatedRemaining is nil until enough progress exists to extrapolate.
	EstimatedRemaining *time.Duration
	// Result is set only in PhaseComplete.
	Result *types.UploadResult
	// Failure is set only in PhaseError.
	Failure *Failure
}

type snapshotJSON struct {
	TransferID               string              `json:"transferId,omitempty"`
	Phase                    Phase               `json:"phase"`
	Percentage               int                 `json:"percentage"`
	StatusLabel              string              `json:"statusLabel"`
	Message                  string              `json:"message"`
	EstimatedMillisRemaining *int64              `json:"estimatedMillisRemaining,omitempty"`
	Result                   *types.UploadResult `json:"result,omitempty"`
	Failure                  string              `json:"failure,omitempty"`
}

// MarshalJSON renders the remaining time in milliseconds.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		TransferID:  s.TransferID,
		Phase:       s.Phase,
		Percentage:  s.Percentage,
		StatusLabel: s.StatusLabel,
		Message:     s.Message,
		Result:      s.Result,
	}
	if s.EstimatedRemaining != nil {
		ms := s.EstimatedRemaining.Milliseconds()
		out.EstimatedMillisRemaining = &ms
	}
	if s.Failure != nil {
		out.Failure = s.Failure.Kind.String()
	}
	return json.Marshal(out)
}

// view is an immutable copy of the state published for lock-free reads.
type view struct {
	id       string
	phase    Phase
	pct      int
	message  string
	started  time.Time
	result   *types.UploadResult
	failure  *Failure
	catalog  *Catalog
	estAfter int
}

func (v *view) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		TransferID:  v.id,
		Phase:       v.phase,
		Percentage:  v.pct,
		StatusLabel: v.catalog.Label(v.phase),
		Message:     v.message,
		Result:      v.result,
		Failure:     v.failure,
	}
	s.EstimatedRemaining = estimate(v.pct, v.estAfter, v.started, now)
	return s
}

// estimate extrapolates the remaining time assuming a constant rate:
// elapsed/pct*100 - elapsed, floored at zero.
func estimate(pct, after int, started, now time.Time) *time.Duration {
	if pct <= after || pct <= 0 || started.IsZero() {
		return nil
	}
	elapsed := now.Sub(started)
	remaining := time.Duration(float64(elapsed)/float64(pct)*Complete) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
