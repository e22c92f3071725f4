package vectorstore

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq atomic.Uint64

// NextIDs generates n vector IDs of the form vec_<unixmilli>_<seq>. The
// sequence component is process-wide monotonic, so batches landing in the
// same millisecond still get distinct IDs.
func NextIDs(n int) []string {
	now := time.Now().UnixMilli()
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("vec_%d_%d", now, idSeq.Add(1))
	}
	return out
}
