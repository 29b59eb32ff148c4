package render

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/projecteru2/docup/synth"
)

// JSON writes every snapshot as one JSON document per line.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON creates a JSON renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

func (j *JSON) Render(s synth.Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(s)
}
