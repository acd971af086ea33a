package ring

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when a ring cannot be sized as requested.
var ErrCapacity = errors.New("invalid ring capacity")

// Ring is a fixed-capacity circular buffer of 16-bit samples.
// Stereo frames are stored as consecutive element pairs.
//
// Ring does no locking of its own: callers must serialize access.
// Writes never overwrite unread data, a writer that needs more room
// than Available reports has to wait or drop instead.
type Ring struct {
	buf      []int16
	readPos  int
	writePos int
	count    int
}

// New creates a ring holding capacity elements.
func New(capacity int) (*Ring, error) {
	r := &Ring{}
	if err := r.Reset(capacity); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset reallocates storage for capacity elements and clears both cursors.
func (r *Ring) Reset(capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	r.buf = make([]int16, capacity)
	r.readPos = 0
	r.writePos = 0
	r.count = 0
	return nil
}

// Cap returns the capacity in elements.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Used returns the number of unread elements.
func (r *Ring) Used() int {
	return r.count
}

// Available returns the number of elements that can be written without
// overwriting unread data.
func (r *Ring) Available() int {
	return len(r.buf) - r.count
}

// Write copies all of src into the ring, wrapping at the end of storage.
// It panics if src does not fit, partial acceptance is the caller's decision.
func (r *Ring) Write(src []int16) {
	n := len(src)
	if n == 0 {
		return
	}
	if n > r.Available() {
		panic(fmt.Sprintf("ring: write of %d elements exceeds available space %d", n, r.Available()))
	}

	first := len(r.buf) - r.writePos
	if first >= n {
		copy(r.buf[r.writePos:], src)
	} else {
		copy(r.buf[r.writePos:], src[:first])
		copy(r.buf, src[first:])
	}
	r.writePos = (r.writePos + n) % len(r.buf)
	r.count += n
}

// Read fills dst with the oldest unread elements, wrapping at the end of storage.
// It panics if dst asks for more than Used reports.
func (r *Ring) Read(dst []int16) {
	n := len(dst)
	if n == 0 {
		return
	}
	if n > r.count {
		panic(fmt.Sprintf("ring: read of %d elements exceeds used %d", n, r.count))
	}

	first := len(r.buf) - r.readPos
	if first >= n {
		copy(dst, r.buf[r.readPos:r.readPos+n])
	} else {
		copy(dst, r.buf[r.readPos:])
		copy(dst[first:], r.buf[:n-first])
	}
	r.readPos = (r.readPos + n) % len(r.buf)
	r.count -= n
}
