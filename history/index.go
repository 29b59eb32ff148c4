package history

import (
	"slices"

	"github.com/projecteru2/docup/types"
)

// uploadIndex is the on-disk history document. Records are kept in
// completion order, oldest first.
type uploadIndex struct {
	Records []*types.HistoryRecord `json:"records"`
}

// Init implements storage.Initer.
func (idx *uploadIndex) Init() {
	if idx.Records == nil {
		idx.Records = []*types.HistoryRecord{}
	}
}

// Lookup finds a record by transfer id or unique id prefix.
func (idx *uploadIndex) Lookup(id string) (*types.HistoryRecord, bool) {
	var found *types.HistoryRecord
	for _, rec := range idx.Records {
		switch {
		case rec.ID == id:
			return rec, true
		case len(id) >= 4 && len(rec.ID) > len(id) && rec.ID[:len(id)] == id: //nolint:mnd
			if found != nil {
				return nil, false
			}
			found = rec
		}
	}
	return found, found != nil
}

// prune drops the oldest records beyond limit and returns how many went.
func (idx *uploadIndex) prune(limit int) int {
	if limit <= 0 || len(idx.Records) <= limit {
		return 0
	}
	n := len(idx.Records) - limit
	idx.Records = slices.Delete(idx.Records, 0, n)
	return n
}
