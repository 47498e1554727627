package render

import (
	"sync/atomic"
)

// FrameSlots is the number of frames the ring holds. At 10 stream frames per
// second that is a little under a second of backlog.
const FrameSlots = 8

// FrameRing hands encoded frames from one producer goroutine to one consumer
// without locks. When the consumer falls behind, new frames are dropped
// instead of blocking the renderer.
type FrameRing struct {
	slots    [FrameSlots][]byte
	readIdx  atomic.Uint32
	writeIdx atomic.Uint32

	written atomic.Uint64
	dropped atomic.Uint64
	read    atomic.Uint64
}

// FrameRingStats is a point-in-time view of ring counters.
type FrameRingStats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Read    uint64 `json:"read"`
}

func NewFrameRing() *FrameRing {
	return &FrameRing{}
}

// TryWrite copies frame into the next slot. It reports false when the ring
// is full. Slots are reused, so steady-state writes don't allocate.
func (r *FrameRing) TryWrite(frame []byte) bool {
	w := r.writeIdx.Load()
	next := (w + 1) % FrameSlots
	if next == r.readIdx.Load() {
		r.dropped.Add(1)
		return false
	}

	r.slots[w] = append(r.slots[w][:0], frame...)
	r.writeIdx.Store(next)
	r.written.Add(1)
	return true
}

// TryRead returns the oldest frame, or nil when the ring is empty. The
// returned slice is valid until the producer wraps around to its slot; copy
// it to keep it longer.
func (r *FrameRing) TryRead() []byte {
	rd := r.readIdx.Load()
	if rd == r.writeIdx.Load() {
		return nil
	}

	frame := r.slots[rd]
	r.readIdx.Store((rd + 1) % FrameSlots)
	r.read.Add(1)
	return frame
}

// Available returns the number of frames waiting to be read.
func (r *FrameRing) Available() int {
	rd, w := r.readIdx.Load(), r.writeIdx.Load()
	if w >= rd {
		return int(w - rd)
	}
	return int(FrameSlots - rd + w)
}

func (r *FrameRing) Stats() FrameRingStats {
	return FrameRingStats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
		Read:    r.read.Load(),
	}
}
