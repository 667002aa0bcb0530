// Package change defines the payload the editor hands to its sinks: one
// Batch per emitted document value, carrying the records of what caused it.
package change

import "encoding/json"

// Op is the cause of a content change.
type Op string

const (
	OpInput    Op = "input"    // native edit reported by the host
	OpFormat   Op = "format"   // formatting command
	OpDrag     Op = "drag"     // block reorder
	OpMedia    Op = "media"    // media delete, resize or replace
	OpExternal Op = "external" // host-driven SetHTML that rewrote the tree
	OpUndo     Op = "undo"
	OpRedo     Op = "redo"
)

// Record is one cause within a debounce window.
type Record struct {
	Op     Op     `json:"op"`
	Path   string `json:"path,omitempty"`   // node path of the affected node, "" for the whole root
	Detail string `json:"detail,omitempty"` // command name, attribute, url
}

// Batch is one emission. Seq increases by one per emission of a document so
// consumers can detect gaps.
type Batch struct {
	ID        string   `json:"id"`
	DocID     string   `json:"doc_id,omitempty"`
	Seq       uint64   `json:"seq"`
	Origin    Op       `json:"origin"`
	HTML      string   `json:"html"`
	Records   []Record `json:"records,omitempty"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds at flush
}

// Compress collapses runs of consecutive records sharing op and path into
// the last record of the run. Media records are kept as they come since each
// one names a distinct edit.
func Compress(records []Record) []Record {
	if len(records) <= 1 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if n := len(out); n > 0 && r.Op != OpMedia && out[n-1].Op == r.Op && out[n-1].Path == r.Path {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

// Marshal serialises a Batch to JSON.
func Marshal(b *Batch) ([]byte, error) {
	return json.Marshal(b)
}

// Unmarshal deserialises a Batch from JSON.
func Unmarshal(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
