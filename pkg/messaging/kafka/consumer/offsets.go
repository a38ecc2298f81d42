package consumer

import "sync"

// offsetTracker computes, per partition, the contiguous watermark of batches
// that reached a terminal state. Batches of a partition complete out of order
// when several executions run at once; only the completed prefix is committable.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int32]*partitionOffsets
}

type partitionOffsets struct {
	pending []*offsetRange
}

type offsetRange struct {
	first, last int64
	done        bool
}

// ticket identifies a registered range. It stays bound to the assignment it
// was issued under, so completions after a revoke are ignored.
type ticket struct {
	partition int32
	owner     *partitionOffsets
	rng       *offsetRange
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int32]*partitionOffsets)}
}

// begin registers a dispatched range. Ranges of a partition must be registered in offset order.
func (t *offsetTracker) begin(partition int32, first, last int64) *ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	po, ok := t.partitions[partition]
	if !ok {
		po = &partitionOffsets{}
		t.partitions[partition] = po
	}
	rng := &offsetRange{first: first, last: last}
	po.pending = append(po.pending, rng)
	return &ticket{partition: partition, owner: po, rng: rng}
}

// complete marks the range done. It returns the next offset to consume
// (watermark + 1) when the watermark advanced.
func (t *offsetTracker) complete(tk *ticket) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tk.rng.done = true
	if t.partitions[tk.partition] != tk.owner {
		return 0, false
	}

	po := tk.owner
	advanced := false
	var next int64
	for len(po.pending) > 0 && po.pending[0].done {
		next = po.pending[0].last + 1
		po.pending = po.pending[1:]
		advanced = true
	}
	return next, advanced
}

// forget drops the state of a revoked partition.
func (t *offsetTracker) forget(partition int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.partitions, partition)
}

// inFlight returns the number of registered ranges that are not yet done.
func (t *offsetTracker) inFlight(partition int32) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	po, ok := t.partitions[partition]
	if !ok {
		return 0
	}
	n := 0
	for _, r := range po.pending {
		if !r.done {
			n++
		}
	}
	return n
}
