package dynamic

import (
	"math/rand"
	"sync"
	"time"
)

// pickRnd is process-wide, mutex-guarded (math/rand.Rand is not safe for
// concurrent use). No weighted-sampling library appears anywhere in the
// retrieved pack, so SRV weighted selection (spec.md §4.4) uses the stdlib
// idiom directly: cumulative-weight sampling over one Intn draw.
var (
	randMu  sync.Mutex
	pickRnd = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return pickRnd.Intn(n)
}
