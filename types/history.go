package types

import "time"

// HistoryRecord is one completed upload kept in the local history index.
type HistoryRecord struct {
	ID         string        `json:"id"`
	File       string        `json:"file"`
	Result     *UploadResult `json:"result"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Duration returns how long the transfer took end to end.
func (r *HistoryRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
